package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indica busca salva, anúncio ou notificação inexistente
	ErrNotFound = errors.New("registro não encontrado")

	// ErrDuplicateListing indica que a URL já está registrada para a busca
	ErrDuplicateListing = errors.New("anúncio já registrado para esta busca")

	// ErrInternal indica falha de persistência ou erro de programação
	ErrInternal = errors.New("erro interno")
)

// ValidationError descreve um filtro ou consulta malformados
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("filtro inválido (%s): %s", e.Field, e.Reason)
}
