package templates

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownTemplate is returned when a template name does not match any supported kind.
var ErrUnknownTemplate = errors.New("templates: unknown template")

// Kind enumerates the supported email templates.
type Kind int

const (
	KindLowStock Kind = iota + 1
	KindExpiration
	KindInventoryReport
)

var kindNames = map[Kind]string{
	KindLowStock:        "stockBajo",
	KindExpiration:      "vencimiento",
	KindInventoryReport: "reporteInventario",
}

// Names lists the wire names of every template kind in declaration order.
func Names() []string {
	return []string{kindNames[KindLowStock], kindNames[KindExpiration], kindNames[KindInventoryReport]}
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind maps a wire name onto a Kind.
func ParseKind(name string) (Kind, error) {
	trimmed := strings.TrimSpace(name)
	for kind, candidate := range kindNames {
		if candidate == trimmed {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
}
