package orchestrators

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"tuition/internal/adapters/backend"
	"tuition/internal/adapters/email"
	"tuition/internal/adapters/export"
	domainAudit "tuition/internal/domain/audit"
	domainOutbox "tuition/internal/domain/outbox"
	"tuition/internal/domain/report"
)

var ErrNoReportRecipients = errors.New("enter at least one email address")

// HistoryReader loads a month of attendance history.
type HistoryReader interface {
	History(ctx context.Context, tuitionID, year, month int) (backend.History, error)
}

// ReportEmailDeps holds dependencies for emailing a monthly report.
type ReportEmailDeps struct {
	Backend     HistoryReader
	Sender      email.Sender
	OutboxStore OutboxSaver
	AuditStore  AuditRecorder
	Now         func() time.Time
	GenerateID  func() string
}

// ReportEmailResult tells the caller whether the email went out or was queued.
type ReportEmailResult struct {
	MessageID string
	Queued    bool
}

// ExecuteEmailReport emails a month's attendance sheet as PDF and XLSX attachments.
// PRE: at least one recipient; Title is the grade title; Month in [1, 12]
// POST: Email sent, or queued in the outbox when the mail provider fails
func ExecuteEmailReport(ctx context.Context, actor Actor, input domainOutbox.ReportEmail, deps ReportEmailDeps) (ReportEmailResult, error) {
	input.To = cleanRecipients(input.To)
	if len(input.To) == 0 {
		return ReportEmailResult{}, ErrNoReportRecipients
	}
	if input.TuitionID <= 0 {
		return ReportEmailResult{}, report.ErrEmptyTuitionID
	}
	if input.Month < 1 || input.Month > 12 {
		return ReportEmailResult{}, fmt.Errorf("month %d out of range", input.Month)
	}

	req, err := buildReportEmail(ctx, deps.Backend, input)
	if err != nil {
		return ReportEmailResult{}, err
	}

	now := nowOr(deps.Now)
	ev := domainAudit.NewEvent(actor.Email, domainAudit.CategoryReport, domainAudit.ActionSend, now).
		WithResource("tuition", strconv.Itoa(input.TuitionID)).
		WithDescription(fmt.Sprintf("%s %d-%02d to %s", input.Title, input.Year, input.Month, strings.Join(input.To, ", ")))

	res, err := deps.Sender.Send(ctx, req)
	if err == nil {
		slog.Info("report_email_sent", "tuition_id", input.TuitionID, "to_count", len(input.To), "message_id", res.MessageID)
		recordAudit(ctx, deps.AuditStore, actor, ev)
		return ReportEmailResult{MessageID: res.MessageID}, nil
	}

	slog.Warn("report_email_failed", "tuition_id", input.TuitionID, "error", err)
	id := uuid.NewString
	if deps.GenerateID != nil {
		id = deps.GenerateID
	}
	entry, qerr := domainOutbox.NewEntry(id(), domainOutbox.ActionReportEmail, actor.Email, input, now)
	if qerr == nil {
		qerr = deps.OutboxStore.Save(ctx, entry)
	}
	if qerr != nil {
		return ReportEmailResult{}, fmt.Errorf("send report email: %w (queue: %v)", err, qerr)
	}
	recordAudit(ctx, deps.AuditStore, actor, ev.WithSeverity(domainAudit.SeverityWarning).
		WithDescription(ev.Description+" (queued)"))
	return ReportEmailResult{Queued: true}, nil
}

// buildReportEmail fetches the month and renders the message with both attachments.
func buildReportEmail(ctx context.Context, hr HistoryReader, input domainOutbox.ReportEmail) (email.SendRequest, error) {
	h, err := hr.History(ctx, input.TuitionID, input.Year, input.Month)
	if err != nil {
		return email.SendRequest{}, err
	}
	sheet := report.NewSheet(input.Title, input.Year, time.Month(input.Month), h.DayHeaders, h.Rows)

	var pdf, xlsx bytes.Buffer
	if err := export.WriteAttendancePDF(&pdf, sheet); err != nil {
		return email.SendRequest{}, err
	}
	if err := export.WriteAttendanceXLSX(&xlsx, sheet); err != nil {
		return email.SendRequest{}, err
	}
	body, err := email.RenderHTML(reportMarkdown(sheet))
	if err != nil {
		return email.SendRequest{}, err
	}

	return email.SendRequest{
		To:      input.To,
		Subject: "Attendance: " + sheet.Heading(),
		HTML:    body,
		Attachments: []email.Attachment{
			{Filename: sheet.Filename(string(export.FormatPDF)), Content: pdf.Bytes()},
			{Filename: sheet.Filename(string(export.FormatXLSX)), Content: xlsx.Bytes()},
		},
	}, nil
}

// reportMarkdown summarises the sheet: one line per week with how many attended.
func reportMarkdown(s report.Sheet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", s.Heading())
	fmt.Fprintf(&b, "The attendance sheet for **%d** students is attached as PDF and Excel.\n\n", len(s.Rows))
	b.WriteString("| Week | Attended | Absent |\n|---|---|---|\n")
	for w := 1; w <= s.WeekCount(); w++ {
		label := "Week " + strconv.Itoa(w)
		if w <= len(s.DayHeaders) {
			label = s.DayHeaders[w-1]
		}
		var attended, absent int
		for _, r := range s.Rows {
			switch report.HistoryCell(r, w, s.Year, s.Month) {
			case report.CellAttended:
				attended++
			case report.CellAbsent:
				absent++
			}
		}
		fmt.Fprintf(&b, "| %s | %d | %d |\n", label, attended, absent)
	}
	return b.String()
}

func cleanRecipients(to []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, addr := range to {
		for _, a := range strings.Split(addr, ",") {
			a = strings.TrimSpace(a)
			key := strings.ToLower(a)
			if a == "" || !strings.Contains(a, "@") || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, a)
		}
	}
	return out
}
