package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/archive"
	"fintrack/internal/core"
	"fintrack/internal/ports"
	"fintrack/internal/report"
)

const defaultReportDays = 30

var (
	ErrNoTransactions = errors.New("No transactions found in this date range.")
	ErrInvalidRange   = errors.New("from date must not be after to date")
)

// ReportRequest carries raw YYYY-MM-DD bounds; empty values take defaults.
type ReportRequest struct {
	UserID string
	From   string
	To     string
	Format report.Format
}

type ReportOutput struct {
	FileName    string
	ContentType string
	Data        []byte
	ArchiveURI  string
}

type ReportService struct {
	lister   ports.TransactionLister
	archiver archive.Archiver
	now      func() time.Time
}

// NewReportService builds a report service. archiver may be nil.
func NewReportService(lister ports.TransactionLister, archiver archive.Archiver, now func() time.Time) *ReportService {
	if now == nil {
		now = time.Now
	}
	return &ReportService{lister: lister, archiver: archiver, now: now}
}

// Range resolves the request bounds. To defaults to today and From to
// thirty days before To.
func (s *ReportService) Range(from, to string) (time.Time, time.Time, error) {
	end := core.TruncateDay(s.now())
	if to != "" {
		d, err := core.ParseDay(to)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = d
	}
	start := end.AddDate(0, 0, -defaultReportDays)
	if from != "" {
		d, err := core.ParseDay(from)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = d
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, ErrInvalidRange
	}
	return start, end, nil
}

// Document loads and filters the user's transactions for the requested range.
func (s *ReportService) Document(ctx context.Context, req ReportRequest) (report.Document, error) {
	if req.UserID == "" {
		return report.Document{}, core.ErrMissingUser
	}
	from, to, err := s.Range(req.From, req.To)
	if err != nil {
		return report.Document{}, err
	}
	txs, err := s.lister.ListTransactions(ctx, ports.TransactionQuery{UserID: req.UserID, Order: ports.OrderDesc})
	if err != nil {
		return report.Document{}, fmt.Errorf("load transactions: %w", err)
	}
	txs = report.FilterRange(txs, from, to)
	if len(txs) == 0 {
		return report.Document{}, ErrNoTransactions
	}
	return report.NewDocument(txs, from, to, s.now()), nil
}

// Generate renders the report and, when an archiver is configured, stores a copy.
// Archive failures are logged and do not fail the request.
func (s *ReportService) Generate(ctx context.Context, req ReportRequest) (ReportOutput, error) {
	doc, err := s.Document(ctx, req)
	if err != nil {
		return ReportOutput{}, err
	}
	format := req.Format
	if format == "" {
		format = report.FormatPDF
	}

	var buf bytes.Buffer
	if err := report.Render(&buf, doc, format); err != nil {
		return ReportOutput{}, fmt.Errorf("render report: %w", err)
	}
	out := ReportOutput{
		FileName:    doc.FileName(format),
		ContentType: format.ContentType(),
		Data:        buf.Bytes(),
	}

	if s.archiver != nil {
		uri, err := s.archiver.Put(ctx, req.UserID, out.FileName, out.ContentType, out.Data)
		if err != nil {
			slog.WarnContext(ctx, "Failed to archive report", "file", out.FileName, "error", err)
		} else {
			out.ArchiveURI = uri
			slog.InfoContext(ctx, "Archived report", "uri", uri)
		}
	}
	return out, nil
}
