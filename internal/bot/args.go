package bot

import (
	"strconv"
	"strings"

	"bot-anuncios/internal/models"
)

// parseSearchArgs separa a consulta dos filtros no formato chave=valor.
// Ex: "lampada vintage max=80 cond=usato ordem=preco-asc".
// Sem nenhum filtro o retorno é nil.
func parseSearchArgs(args []string) (string, *models.Filter, error) {
	var words []string
	var f models.Filter
	hasFilter := false

	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			words = append(words, arg)
			continue
		}

		switch strings.ToLower(key) {
		case "min", "max":
			v, err := parseAmount(value)
			if err != nil {
				return "", nil, &models.ValidationError{Field: "price." + strings.ToLower(key), Reason: "valor inválido: " + value}
			}
			if f.Price == nil {
				f.Price = &models.PriceRange{}
			}
			if strings.EqualFold(key, "min") {
				f.Price.Min = &v
			} else {
				f.Price.Max = &v
			}
		case "cond", "condicao":
			f.Condition = value
		case "cep", "zip":
			if f.Location == nil {
				f.Location = &models.LocationFilter{}
			}
			f.Location.ZipCode = value
		case "dist", "distancia":
			v, err := parseAmount(value)
			if err != nil {
				return "", nil, &models.ValidationError{Field: "location.distance", Reason: "valor inválido: " + value}
			}
			if f.Location == nil {
				f.Location = &models.LocationFilter{}
			}
			f.Location.Distance = &v
		case "ordem", "sort":
			f.SortBy = models.SortKey(value)
		default:
			// não é filtro conhecido, faz parte da consulta
			words = append(words, arg)
			continue
		}
		hasFilter = true
	}

	query := strings.Join(words, " ")
	if !hasFilter {
		return query, nil, nil
	}
	return query, &f, nil
}

// parseAmount aceita vírgula ou ponto como separador decimal
func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	return strconv.ParseFloat(s, 64)
}

// parseID lê o id numérico do segundo campo do comando
func parseID(parts []string) (int64, bool) {
	if len(parts) < 2 {
		return 0, false
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
