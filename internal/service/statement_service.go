package service

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"sync"
	"time"

	"netbank/internal/domain"
)

// StatementService delivers statement e-mails through a pool of workers.
// Delivery is fire-and-forget from the ledger core's perspective: a failure
// here never rolls back any account or ledger mutation.
type StatementService struct {
	sender       EmailSender
	jobQueue     chan statementJob
	workers      int
	shutdownChan chan struct{}
	wg           sync.WaitGroup
	logger       *slog.Logger
}

type statementJob struct {
	Recipient string
	Rows      []domain.StatementRow
	QueuedAt  time.Time
}

type EmailSender interface {
	SendEmail(to, subject, htmlBody string) error
}

var statementTemplate = template.Must(template.New("statement").Parse(`<h2>Your Bank Statement</h2>
<table border="1" cellpadding="6" cellspacing="0">
  <thead>
    <tr><th>Date</th><th>Description</th><th>Type</th><th>Amount</th><th>Balance</th></tr>
  </thead>
  <tbody>
{{- range . }}
    <tr><td>{{ .Date }}</td><td>{{ .Description }}</td><td>{{ .Type }}</td><td>₹{{ .Amount }}</td><td>₹{{ .Balance }}</td></tr>
{{- end }}
  </tbody>
</table>
`))

func NewStatementService(sender EmailSender, workers int, logger *slog.Logger) *StatementService {
	if logger == nil {
		logger = slog.Default()
	}

	service := &StatementService{
		sender:       sender,
		jobQueue:     make(chan statementJob, 100),
		workers:      workers,
		shutdownChan: make(chan struct{}),
		logger:       logger,
	}

	service.startWorkers()

	return service
}

// BuildStatementRows materializes ledger records into the rows the e-mail
// collaborator expects.
func BuildStatementRows(records []domain.TransactionRecord) []domain.StatementRow {
	rows := make([]domain.StatementRow, 0, len(records))
	for _, r := range records {
		description := r.Description
		if description == "" {
			description = "Transaction"
		}
		rows = append(rows, domain.StatementRow{
			Date:        r.Timestamp.Format("2006-01-02"),
			Description: description,
			Type:        string(r.Kind),
			Amount:      r.Amount.String(),
			Balance:     r.ResultingBalance.String(),
		})
	}
	return rows
}

// QueueStatement enqueues one delivery; it blocks only when the queue is
// full and the context expires first.
func (s *StatementService) QueueStatement(ctx context.Context, recipient string, rows []domain.StatementRow) error {
	job := statementJob{
		Recipient: recipient,
		Rows:      rows,
		QueuedAt:  time.Now(),
	}

	select {
	case s.jobQueue <- job:
		s.logger.Info("Statement delivery queued",
			slog.String("recipient", recipient),
			slog.Int("rows", len(rows)))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *StatementService) startWorkers() {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

func (s *StatementService) worker(id int) {
	defer s.wg.Done()

	s.logger.Info("Statement worker started", slog.Int("worker_id", id))

	for {
		select {
		case job := <-s.jobQueue:
			s.deliver(job, id)
		case <-s.shutdownChan:
			s.logger.Info("Statement worker stopping", slog.Int("worker_id", id))
			return
		}
	}
}

func (s *StatementService) deliver(job statementJob, workerID int) {
	startTime := time.Now()

	html, err := renderStatementHTML(job.Rows)
	if err == nil {
		err = s.sender.SendEmail(job.Recipient, "Your Bank Statement", html)
	}

	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("Failed to send statement",
			slog.String("recipient", job.Recipient),
			slog.String("error", err.Error()),
			slog.Int("worker_id", workerID),
			slog.Duration("duration", duration))
	} else {
		s.logger.Info("Statement sent",
			slog.String("recipient", job.Recipient),
			slog.Int("rows", len(job.Rows)),
			slog.Int("worker_id", workerID),
			slog.Duration("duration", duration))
	}
}

func renderStatementHTML(rows []domain.StatementRow) (string, error) {
	var b strings.Builder
	if err := statementTemplate.Execute(&b, rows); err != nil {
		return "", fmt.Errorf("failed to render statement: %w", err)
	}
	return b.String(), nil
}

func (s *StatementService) Shutdown(ctx context.Context) error {
	close(s.shutdownChan)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Statement service shutdown complete")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type MockEmailSender struct {
	mu   sync.Mutex
	sent []SentEmail
}

type SentEmail struct {
	To      string
	Subject string
	Body    string
}

func (m *MockEmailSender) SendEmail(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentEmail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *MockEmailSender) Sent() []SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentEmail, len(m.sent))
	copy(out, m.sent)
	return out
}
