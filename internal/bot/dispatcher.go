package bot

import (
	"context"
	"errors"
	"strings"

	"finbot/internal/core"
	"finbot/internal/log"
	"finbot/internal/ratelimit"
	"finbot/internal/services"
	"finbot/internal/sheets"
)

// Dispatcher turns chat commands into ledger operations and renders replies.
// It knows nothing about the chat transport.
type Dispatcher struct {
	ledger   *services.LedgerService
	limiter  *ratelimit.Limiter
	exporter sheets.RowExporter
	logger   *log.Logger
}

type Option func(*Dispatcher)

// WithRateLimiter throttles commands per user.
func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(d *Dispatcher) { d.limiter = l }
}

// WithRowExporter mirrors /export to a spreadsheet.
func WithRowExporter(e sheets.RowExporter) Option {
	return func(d *Dispatcher) { d.exporter = e }
}

func NewDispatcher(ledger *services.LedgerService, logger *log.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		ledger: ledger,
		logger: logger.WithComponent(log.ComponentBot),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle executes one command and always returns a reply.
func (d *Dispatcher) Handle(ctx context.Context, req Request) Response {
	cmd := normalizeCommand(req.Command)
	d.logger.DebugContext(ctx, "Handling command",
		log.FieldUserID, req.UserID,
		log.FieldCommand, cmd)

	if d.limiter != nil && !d.limiter.Allow(req.UserID) {
		d.logger.WarnContext(ctx, "Command throttled",
			log.FieldUserID, req.UserID,
			log.FieldCommand, cmd)
		return text(textThrottled)
	}

	switch cmd {
	case "start":
		d.ledger.Start(ctx, req.UserID)
		return text(textWelcome)
	case "help":
		return text(textHelp)
	case "add":
		return d.add(ctx, req)
	case "edit":
		return d.edit(ctx, req)
	case "delete":
		return d.delete(ctx, req)
	case "transactions":
		return d.transactions(ctx, req)
	case "report":
		return d.report(ctx, req)
	case "setlimit":
		return d.setLimit(ctx, req)
	case "limit":
		return text(formatLimitStatus(d.ledger.Limit(ctx, req.UserID)))
	case "export":
		return d.export(ctx, req)
	default:
		return text(textUnknown)
	}
}

func (d *Dispatcher) add(ctx context.Context, req Request) Response {
	args := splitArgs(req.Args)
	if len(args) == 0 {
		return text(textAddUsage)
	}
	if len(args) < 3 {
		return text(textAddFormat)
	}
	e, err := core.ParseEntry(args[0], args[1], args[2])
	if err != nil {
		return text(textAddFormat)
	}
	if _, err := d.ledger.Add(ctx, req.UserID, e); err != nil {
		return d.failure(ctx, req, err, textAddFormat)
	}
	return text(textAdded)
}

func (d *Dispatcher) edit(ctx context.Context, req Request) Response {
	if d.isEmpty(ctx, req.UserID) {
		return text(textEditEmpty)
	}
	args := splitArgs(req.Args)
	if len(args) == 0 {
		return text(textEditUsage)
	}
	if len(args) < 4 {
		return text(textEditFormat)
	}
	index, err := parseIndex(args[0])
	if err != nil {
		return text(textEditFormat)
	}
	e, err := core.ParseEntry(args[1], args[2], args[3])
	if err != nil {
		return text(textEditFormat)
	}
	if _, err := d.ledger.Edit(ctx, req.UserID, index, e); err != nil {
		return d.failure(ctx, req, err, textEditFormat)
	}
	return text(textEdited)
}

func (d *Dispatcher) delete(ctx context.Context, req Request) Response {
	if d.isEmpty(ctx, req.UserID) {
		return text(textDeleteEmpty)
	}
	raw := firstWord(req.Args)
	if raw == "" {
		return text(textDeleteUsage)
	}
	index, err := parseIndex(raw)
	if err != nil {
		return text(textDeleteFormat)
	}
	if _, err := d.ledger.Remove(ctx, req.UserID, index); err != nil {
		return d.failure(ctx, req, err, textDeleteFormat)
	}
	return text(textDeleted)
}

func (d *Dispatcher) transactions(ctx context.Context, req Request) Response {
	txs, err := d.ledger.Transactions(ctx, req.UserID)
	if err != nil {
		return d.failure(ctx, req, err, textInternal)
	}
	return text(formatTransactions(txs))
}

func (d *Dispatcher) report(ctx context.Context, req Request) Response {
	r, err := d.ledger.Report(ctx, req.UserID)
	if err != nil {
		return d.failure(ctx, req, err, textInternal)
	}
	return text(formatReport(r))
}

func (d *Dispatcher) setLimit(ctx context.Context, req Request) Response {
	raw := firstWord(req.Args)
	if raw == "" {
		return text(textSetLimitUsage)
	}
	switch strings.ToLower(raw) {
	case "off", "выкл":
		d.ledger.ClearLimit(ctx, req.UserID)
		return text(textLimitCleared)
	}

	// Only the first word counts. A comma is an argument separator, never a
	// decimal point.
	if strings.Contains(raw, ",") {
		return text(textSetLimitFormat)
	}
	limit, err := core.ParseAmount(raw)
	if err != nil {
		return text(textSetLimitFormat)
	}
	if err := d.ledger.SetLimit(ctx, req.UserID, limit); err != nil {
		return d.failure(ctx, req, err, textSetLimitFormat)
	}
	return text(formatLimitSet(core.FormatAmount(limit)))
}

func (d *Dispatcher) export(ctx context.Context, req Request) Response {
	rows, err := d.ledger.Export(ctx, req.UserID)
	if err != nil {
		return d.failure(ctx, req, err, textInternal)
	}

	content, err := encodeCSV(rows)
	if err != nil {
		return d.failure(ctx, req, err, textInternal)
	}
	resp := Response{Document: &Document{Name: exportFileName(req.UserID), Content: content}}

	if d.exporter != nil {
		ref, err := d.exporter.ExportRows(ctx, req.UserID, rows)
		if err != nil {
			d.logger.ErrorContext(ctx, "Failed to mirror export to spreadsheet", log.NewFields().
				WithComponent(log.ComponentSheets).
				WithOperation(log.OpExport).
				WithUser(req.UserID).
				WithError(err).
				WithErrorType(log.ErrorTypeNetwork).
				ToSlice()...)
			resp.Text = textSheetFailed
		} else {
			resp.Text = formatSheetRef(ref)
		}
	}
	return resp
}

func (d *Dispatcher) isEmpty(ctx context.Context, userID int64) bool {
	_, err := d.ledger.Transactions(ctx, userID)
	return errors.Is(err, core.ErrNoData)
}

// failure maps ledger errors to replies. formatHint is used for validation
// errors.
func (d *Dispatcher) failure(ctx context.Context, req Request, err error, formatHint string) Response {
	switch {
	case errors.Is(err, core.ErrLimitExceeded):
		return text(textLimitExceeded)
	case errors.Is(err, core.ErrIndexOutOfRange):
		return text(textBadIndex)
	case errors.Is(err, core.ErrNoData):
		return text(noDataText(normalizeCommand(req.Command)))
	case errors.Is(err, core.ErrValidation):
		return text(formatHint)
	}

	d.logger.ErrorContext(ctx, "Command failed", log.NewFields().
		WithUser(req.UserID).
		WithError(err).
		WithErrorType(log.ErrorTypeInternal).
		ToSlice()...)
	return text(textInternal)
}

func noDataText(cmd string) string {
	switch cmd {
	case "report":
		return textNoReport
	case "export":
		return textNoExport
	default:
		return textNoTransactions
	}
}

func text(s string) Response {
	return Response{Text: s}
}
