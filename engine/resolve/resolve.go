// Package resolve maps names typed by a player to catalog IDs (items and
// shops).
package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nathoo/econcore/engine/ledger"
)

// AmbiguityError indicates multiple IDs matched a name.
type AmbiguityError struct {
	Name       string
	Candidates []string
}

func (e *AmbiguityError) Error() string {
	names := strings.Join(e.Candidates, ", ")
	return fmt.Sprintf("which %s? (%s)", e.Name, names)
}

// NotFoundError indicates no ID matched a name. It unwraps to Kind so
// callers can use errors.Is with the ledger sentinels.
type NotFoundError struct {
	Name string
	Kind error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%v: %q", e.Kind, e.Name)
}

func (e *NotFoundError) Unwrap() error { return e.Kind }

// Item resolves name against item IDs such as "minecraft:iron_ingot".
func Item(name string, ids []string) (string, error) {
	return resolveName(name, ids, ledger.ErrUnknownItem)
}

// Shop resolves name against shop IDs.
func Shop(name string, ids []string) (string, error) {
	return resolveName(name, ids, ledger.ErrUnknownShop)
}

// resolveName tries, in order: exact ID, namespace-less ID ("diamond" for
// "minecraft:diamond"), then a whole-word match inside the ID.
func resolveName(name string, ids []string, kind error) (string, error) {
	q := strings.ToLower(strings.TrimSpace(name))
	q = strings.ReplaceAll(q, " ", "_")
	if q == "" {
		return "", &NotFoundError{Name: name, Kind: kind}
	}

	for _, id := range ids {
		if strings.ToLower(id) == q {
			return id, nil
		}
	}

	var matches []string
	for _, id := range ids {
		if localName(id) == q {
			matches = append(matches, id)
		}
	}
	if len(matches) == 0 {
		for _, id := range ids {
			if hasWord(localName(id), q) {
				matches = append(matches, id)
			}
		}
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{Name: name, Kind: kind}
	case 1:
		return matches[0], nil
	default:
		sort.Strings(matches)
		return "", &AmbiguityError{Name: name, Candidates: matches}
	}
}

// localName strips the namespace: "minecraft:gold_ingot" -> "gold_ingot".
func localName(id string) string {
	id = strings.ToLower(id)
	if i := strings.LastIndexByte(id, ':'); i >= 0 {
		return id[i+1:]
	}
	return id
}

// hasWord reports whether q equals a run of whole underscore-separated
// words in s: "ingot" and "gold_ingot" both match "gold_ingot".
func hasWord(s, q string) bool {
	words := strings.Split(s, "_")
	qw := strings.Split(q, "_")
	for i := 0; i+len(qw) <= len(words); i++ {
		if strings.Join(words[i:i+len(qw)], "_") == q {
			return true
		}
	}
	return false
}
