package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/cartridge/internal/entity"
)

// marshalAux converts the secondary-id map to JSON TEXT for storage.
// Map keys are emitted sorted, so equal maps always produce equal text.
func marshalAux(aux map[string]string) (string, error) {
	clean := make(map[string]string, len(aux))
	for k, v := range aux {
		if v != "" {
			clean[k] = v
		}
	}
	if len(clean) == 0 {
		return "{}", nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(clean); err != nil {
		return "", fmt.Errorf("marshal aux ids: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalAux parses the JSON TEXT written by marshalAux. An empty object
// yields a nil map.
func unmarshalAux(data string) (map[string]string, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}
	var aux map[string]string
	if err := json.Unmarshal([]byte(data), &aux); err != nil {
		return nil, fmt.Errorf("unmarshal aux ids: %w", err)
	}
	return aux, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanEntity reads one row in querysql.Columns order.
func scanEntity(r rowScanner) (entity.Entity, error) {
	var (
		e         entity.Entity
		kind      string
		body      []byte
		published int64
		aux       string
	)
	if err := r.Scan(&e.ID, &kind, &e.Title, &body, &published, &e.ParentID,
		&e.Position, &e.Points, &e.Href, &e.ItemID, &aux, &e.Seq); err != nil {
		return entity.Entity{}, err
	}
	e.Kind = entity.Kind(kind)
	e.Body = string(body)
	e.Published = published != 0

	auxIDs, err := unmarshalAux(aux)
	if err != nil {
		return entity.Entity{}, fmt.Errorf("scan %s: %w", e.ID, err)
	}
	e.AuxIDs = auxIDs
	return e, nil
}
