// Package clipboard copies rendered codemap output to the system clipboard.
package clipboard

import (
	"github.com/atotto/clipboard"
)

// Copier places textual output on the system clipboard.
type Copier interface {
	Copy(text string) error
}

// Service implements Copier on top of github.com/atotto/clipboard.
type Service struct{}

// NewService returns a ready-to-use clipboard Service.
func NewService() *Service {
	return &Service{}
}

// Copy places text on the system clipboard, replacing its current content.
func (service *Service) Copy(text string) error {
	return clipboard.WriteAll(text)
}

var _ Copier = (*Service)(nil)
