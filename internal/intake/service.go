package intake

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/MrJamesThe3rd/pawfund/internal/campaign"
)

type Service struct {
	campaigns *campaign.Service
}

func NewService(campaigns *campaign.Service) *Service {
	return &Service{campaigns: campaigns}
}

// Report summarizes an import. Failed rows do not stop the import.
type Report struct {
	Created []*campaign.Campaign
	Parsed  []Row
	Failed  []RowError
}

// Import parses r and creates one campaign per valid row. With dryRun set
// rows are validated and returned in Parsed but nothing is created.
func (s *Service) Import(ctx context.Context, r io.Reader, dryRun bool) (*Report, error) {
	rows, rowErrs, err := Parse(r)
	if err != nil {
		return nil, err
	}

	report := &Report{Parsed: rows, Failed: rowErrs}
	if dryRun {
		return report, nil
	}

	for _, row := range rows {
		c, err := s.campaigns.Create(ctx, row.Params)
		if err != nil {
			if ctx.Err() != nil {
				return report, fmt.Errorf("importing line %d: %w", row.Line, err)
			}

			report.Failed = append(report.Failed, RowError{Line: row.Line, Err: err})

			continue
		}

		report.Created = append(report.Created, c)
	}

	slog.Info("campaign import finished", "created", len(report.Created), "failed", len(report.Failed))

	return report, nil
}
