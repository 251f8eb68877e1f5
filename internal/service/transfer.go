package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	apperrors "github.com/gmsas95/dosekeeper-cli/internal/errors"
	"github.com/gmsas95/dosekeeper-cli/internal/medicine"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Format is an export/import encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", apperrors.New(apperrors.ErrBadRequest.Code, fmt.Sprintf("unknown format %q", s))
}

// FormatOf guesses the format from a file name
func FormatOf(name string) Format {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") {
		return FormatYAML
	}
	return FormatJSON
}

// Export writes the whole collection
func (s *Service) Export(ctx context.Context, w io.Writer, format Format) error {
	meds, err := s.repo.GetAll(ctx)
	if err != nil {
		return err
	}

	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(meds); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meds)
	}
}

// ImportResult reports how many medicines were stored and whether their
// alarms were set
type ImportResult struct {
	Imported int
	AlarmErr error
}

// Import reads a collection and upserts every record. All records are
// validated before the first write, so one bad record imports nothing.
func (s *Service) Import(ctx context.Context, r io.Reader, format Format) (ImportResult, error) {
	var meds []medicine.Medicine

	var err error
	switch format {
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&meds)
	default:
		err = json.NewDecoder(r).Decode(&meds)
	}
	if err != nil && err != io.EOF {
		return ImportResult{}, apperrors.From(apperrors.ErrBadRequest, err)
	}

	for i := range meds {
		if err := meds[i].Validate(); err != nil {
			msg := fmt.Sprintf("record %d (%s): %s", i+1, meds[i].Name, UserMessage(err))
			return ImportResult{}, apperrors.Wrap(err, apperrors.GetCode(err), msg)
		}
		if meds[i].ID == "" {
			meds[i].ID = medicine.NewID()
		}
	}

	var result ImportResult
	for _, m := range meds {
		_, prev, err := s.repo.Put(ctx, m, nil)
		if err != nil {
			return result, err
		}
		result.Imported++

		if err := s.alarms.ReconcileChange(ctx, prev, m); err != nil && result.AlarmErr == nil {
			result.AlarmErr = err
		}
	}
	s.logger.Info("Medicines imported", zap.Int("count", result.Imported))
	return result, nil
}
