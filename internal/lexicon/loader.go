// internal/lexicon/loader.go
package lexicon

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	stderrors "intent-resolver/internal/common/errors"
	"intent-resolver/internal/common/logger"
	"intent-resolver/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

// lexiconFile is the on-disk shape of one domain vocabulary.
type lexiconFile struct {
	Domain  string  `json:"domain"`
	Entries []Entry `json:"entries"`
}

// Registry holds the loaded lexicon for each domain.
type Registry struct {
	byDomain map[string]*Lexicon
}

// NewRegistry builds a registry from already-indexed lexicons.
func NewRegistry(lexicons ...*Lexicon) *Registry {
	reg := &Registry{byDomain: make(map[string]*Lexicon, len(lexicons))}
	for _, lex := range lexicons {
		reg.byDomain[lex.Domain] = lex
	}
	return reg
}

// Get returns the lexicon for a domain.
func (r *Registry) Get(domain string) (*Lexicon, error) {
	lex, ok := r.byDomain[domain]
	if !ok {
		return nil, stderrors.NewLexiconNotFoundError(domain)
	}
	return lex, nil
}

// Domains lists the loaded domain tags.
func (r *Registry) Domains() []string {
	out := make([]string, 0, len(r.byDomain))
	for d := range r.byDomain {
		out = append(out, d)
	}
	return out
}

// LoadDir loads every *.json lexicon under dir, validating each against
// the JSON schema at schemaPath. Any invalid file fails the whole load:
// vocabulary defects are configuration errors, not runtime conditions.
func LoadDir(dir, schemaPath string, log logger.Logger) (*Registry, error) {
	schema, err := compileSchema(schemaPath)
	if err != nil {
		return nil, err
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan lexicon dir %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no lexicon files found in %s", dir)
	}

	reg := &Registry{byDomain: make(map[string]*Lexicon, len(paths))}
	for _, path := range paths {
		lex, err := LoadFile(path, schema)
		if err != nil {
			return nil, err
		}
		if _, dup := reg.byDomain[lex.Domain]; dup {
			return nil, fmt.Errorf("duplicate lexicon for domain %q (%s)", lex.Domain, path)
		}
		reg.byDomain[lex.Domain] = lex

		log.Info("Lexicon loaded", map[string]interface{}{
			"domain":      lex.Domain,
			"entries":     len(lex.entries),
			"terms":       len(lex.synonymToCanonical),
			"fingerprint": lex.Fingerprint[:12],
		})
	}
	return reg, nil
}

// LoadFile loads and indexes a single lexicon file.
func LoadFile(path string, schema *gojsonschema.Schema) (*Lexicon, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, stderrors.NewLexiconInvalidError(path, err)
	}

	if schema != nil {
		result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			return nil, stderrors.NewLexiconInvalidError(path, err)
		}
		if !result.Valid() {
			var violations []string
			for _, desc := range result.Errors() {
				violations = append(violations, desc.String())
			}
			return nil, stderrors.NewLexiconSchemaViolationError(path, strings.Join(violations, "; "))
		}
	}

	var file lexiconFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, stderrors.NewLexiconInvalidError(path, err)
	}

	sum := sha256.Sum256(raw)
	return Build(file.Domain, hex.EncodeToString(sum[:]), file.Entries)
}

// Build indexes entries into a Lexicon. A synonym mapping to two
// different canonicals is rejected here, at load time.
func Build(domain, fingerprint string, entries []Entry) (*Lexicon, error) {
	lex := &Lexicon{
		Domain:             domain,
		Fingerprint:        fingerprint,
		entries:            entries,
		synonymToCanonical: make(map[string]string),
		termTypes:          make(map[string]map[models.EntityType]bool),
	}

	claim := func(term, canonical string) error {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			return nil
		}
		if prev, ok := lex.synonymToCanonical[term]; ok && prev != canonical {
			return stderrors.NewSynonymConflictError(term, []string{prev, canonical})
		}
		lex.synonymToCanonical[term] = canonical
		if w := len(strings.Fields(term)); w > lex.maxTermTokens {
			lex.maxTermTokens = w
		}
		return nil
	}

	for _, e := range entries {
		canonical := strings.ToLower(strings.TrimSpace(e.Canonical))
		if canonical == "" {
			return nil, fmt.Errorf("lexicon %s: entry with empty canonical", domain)
		}
		if err := claim(canonical, canonical); err != nil {
			return nil, err
		}
		for _, syn := range e.Synonyms {
			if err := claim(syn, canonical); err != nil {
				return nil, err
			}
		}

		if lex.termTypes[canonical] == nil {
			lex.termTypes[canonical] = make(map[models.EntityType]bool, len(e.Types))
		}
		for _, t := range e.Types {
			lex.termTypes[canonical][t] = true
		}
	}

	return lex, nil
}

func compileSchema(schemaPath string) (*gojsonschema.Schema, error) {
	raw, err := os.ReadFile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon schema %s: %w", schemaPath, err)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to compile lexicon schema: %w", err)
	}
	return schema, nil
}
