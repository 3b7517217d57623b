// Package price normaliza os preços heterogêneos das fontes em uma única forma
// textual com moeda, e converte essa forma em valor numérico.
package price

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency é a moeda detectada em um preço
type Currency struct {
	Code   string
	Suffix string // como a moeda é escrita após o número
}

var (
	EUR = Currency{Code: "EUR", Suffix: "€"}
	PLN = Currency{Code: "PLN", Suffix: " PLN"}
	BRL = Currency{Code: "BRL", Suffix: " BRL"}
	GBP = Currency{Code: "GBP", Suffix: " GBP"}
	USD = Currency{Code: "USD", Suffix: " USD"}
)

var (
	// nonNumericRegexp remove tudo exceto dígitos e separadores decimais
	nonNumericRegexp = regexp.MustCompile(`[^0-9.,]`)
	// numberRegexp captura o primeiro número, que pode começar pelo separador (",99")
	numberRegexp = regexp.MustCompile(`[.,]?\d[\d.,]*`)
)

// DetectCurrency identifica a moeda a partir de símbolos ou códigos. O padrão é EUR.
func DetectCurrency(raw string) Currency {
	upper := strings.ToUpper(raw)
	switch {
	case strings.Contains(upper, "PLN") || strings.Contains(raw, "zł"):
		return PLN
	case strings.Contains(upper, "BRL") || strings.Contains(upper, "R$"):
		return BRL
	case strings.Contains(upper, "GBP") || strings.Contains(raw, "£"):
		return GBP
	case strings.Contains(upper, "USD") || strings.Contains(raw, "$"):
		return USD
	default:
		return EUR
	}
}

// Normalize converte um preço bruto em "<número><moeda>", ex: "1.234,50 €" -> "1234.5€".
// Normalize(Normalize(p)) == Normalize(p) para qualquer p.
// Textos sem número (ex: "Prezzo su richiesta") são devolvidos apenas sem espaços nas pontas.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	value, ok := parseNumber(raw)
	if !ok {
		return raw
	}
	return Format(value, DetectCurrency(raw))
}

// Format monta a forma normalizada de um valor numérico
func Format(value decimal.Decimal, c Currency) string {
	return value.String() + c.Suffix
}

// FromAmount normaliza um valor vindo de uma API estruturada
func FromAmount(amount float64, c Currency) string {
	return Format(decimal.NewFromFloat(amount), c)
}

// Parse extrai o valor numérico de um preço, normalizado ou não
func Parse(raw string) (decimal.Decimal, bool) {
	return parseNumber(strings.TrimSpace(raw))
}

func parseNumber(raw string) (decimal.Decimal, bool) {
	match := numberRegexp.FindString(stripSpaces(raw))
	if match == "" {
		return decimal.Zero, false
	}

	cleaned := nonNumericRegexp.ReplaceAllString(match, "")
	cleaned = strings.TrimRight(cleaned, ".,")
	cleaned = canonicalSeparators(cleaned)
	if strings.HasPrefix(cleaned, ".") {
		cleaned = "0" + cleaned
	}

	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return value, true
}

// stripSpaces remove todos os espaços, inclusive os não separáveis usados
// como separador de milhar ("1 234,50")
func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '\u00a0', '\u202f':
			return -1
		}
		return r
	}, s)
}

// canonicalSeparators deixa apenas o ponto como separador decimal.
// Quando há pontos e vírgulas, o último separador é o decimal.
// Vírgula sozinha é decimal; vários pontos são separadores de milhar.
func canonicalSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ".") > 1:
		return strings.ReplaceAll(s, ".", "")
	default:
		return s
	}
}
