package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

const (
	headerUserID = "X-User-ID"
	maxBodyBytes = 1 << 20
)

var (
	errUnauthorized = errors.New("missing or invalid user id")
	errBadRequest   = errors.New("bad request")
)

// flexAmount accepts an amount sent as a JSON number or string.
type flexAmount string

func (a *flexAmount) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = flexAmount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("%w: amount must be a number", errBadRequest)
	}
	*a = flexAmount(n.String())
	return nil
}

type transactionRequest struct {
	UserID      string     `json:"userId"`
	Amount      flexAmount `json:"amount"`
	Date        string     `json:"date"`
	Category    string     `json:"category"`
	Type        string     `json:"type"`
	Description string     `json:"description"`
}

type goalRequest struct {
	UserID       string     `json:"userId"`
	Title        string     `json:"title"`
	TargetAmount flexAmount `json:"target_amount"`
	Deadline     string     `json:"deadline"`
}

type savingsRequest struct {
	UserID string     `json:"userId"`
	Amount flexAmount `json:"amount"`
}

type forecastRequest struct {
	UserID string `json:"userId"`
	Days   int    `json:"days"`
}

type userRequest struct {
	UserID string `json:"userId"`
}

// isJSON reports whether the request body is JSON. An empty content type
// counts as JSON.
func isJSON(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(ct)
	return err == nil && mt == "application/json"
}

// decodeJSON reads a bounded JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: body exceeds %d bytes", errBadRequest, maxBodyBytes)
		}
		if errors.Is(err, errBadRequest) {
			return err
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// parseTransactionRequest reads a JSON or form transaction body.
func parseTransactionRequest(w http.ResponseWriter, r *http.Request) (transactionRequest, error) {
	var req transactionRequest
	if isJSON(r) {
		return req, decodeJSON(w, r, &req)
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return req, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	req = transactionRequest{
		UserID:      r.PostForm.Get("userId"),
		Amount:      flexAmount(r.PostForm.Get("amount")),
		Date:        r.PostForm.Get("date"),
		Category:    r.PostForm.Get("category"),
		Type:        r.PostForm.Get("type"),
		Description: r.PostForm.Get("description"),
	}
	return req, nil
}

// toTransaction validates raw fields. A missing date means now.
func (req transactionRequest) toTransaction(userID string, now time.Time) (core.Transaction, error) {
	amount, err := core.ParseAmount(string(req.Amount))
	if err != nil {
		return core.Transaction{}, err
	}
	typ, err := core.ParseTransactionType(req.Type)
	if err != nil {
		return core.Transaction{}, err
	}
	date := now.UTC()
	if strings.TrimSpace(req.Date) != "" {
		if date, err = core.ParseDate(req.Date); err != nil {
			return core.Transaction{}, err
		}
	}
	return core.Transaction{
		UserID:      userID,
		Amount:      amount,
		Date:        date,
		Category:    sanitizeInput(req.Category),
		Type:        typ,
		Description: sanitizeInput(req.Description),
	}, nil
}

func (req goalRequest) toGoal(userID string) (core.Goal, error) {
	target, err := core.ParseAmount(string(req.TargetAmount))
	if err != nil {
		return core.Goal{}, err
	}
	g := core.Goal{UserID: userID, Title: sanitizeInput(req.Title), TargetAmount: target}
	if strings.TrimSpace(req.Deadline) != "" {
		d, err := core.ParseDay(req.Deadline)
		if err != nil {
			return core.Goal{}, err
		}
		g.Deadline = &d
	}
	return g, nil
}

func parseAmount(a flexAmount) (decimal.Decimal, error) {
	return core.ParseAmount(string(a))
}

// resolveUser returns the caller's user ID from the X-User-ID header, the
// userId query parameter or the body field, in that order. It must be a UUID.
func resolveUser(r *http.Request, bodyUserID string) (string, error) {
	candidates := []string{r.Header.Get(headerUserID), r.URL.Query().Get("userId"), bodyUserID}
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		id, err := uuid.Parse(c)
		if err != nil {
			return "", errUnauthorized
		}
		return id.String(), nil
	}
	return "", errUnauthorized
}

// parseTransactionQuery reads the list filters type, from, to and order.
func parseTransactionQuery(r *http.Request, userID string) (ports.TransactionQuery, error) {
	q := r.URL.Query()
	out := ports.TransactionQuery{UserID: userID, Order: ports.OrderDesc}
	if v := q.Get("type"); v != "" {
		typ, err := core.ParseTransactionType(v)
		if err != nil {
			return out, err
		}
		out.Type = typ
	}
	var err error
	if v := q.Get("from"); v != "" {
		if out.Since, err = core.ParseDay(v); err != nil {
			return out, err
		}
	}
	if v := q.Get("to"); v != "" {
		if out.Until, err = core.ParseDay(v); err != nil {
			return out, err
		}
	}
	switch strings.ToLower(q.Get("order")) {
	case "", string(ports.OrderDesc):
	case string(ports.OrderAsc):
		out.Order = ports.OrderAsc
	default:
		return out, fmt.Errorf("%w: order must be asc or desc", errBadRequest)
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return out, fmt.Errorf("%w: limit must be a non-negative integer", errBadRequest)
		}
		out.Limit = n
	}
	return out, nil
}

// queryInt parses an optional integer query parameter in [0, limit].
func queryInt(r *http.Request, name string, limit int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", errBadRequest, name)
	}
	return n, checkWindow(name, n, limit)
}

func checkWindow(name string, n, limit int) error {
	if n > limit {
		return fmt.Errorf("%w: %s must be at most %d", errBadRequest, name, limit)
	}
	return nil
}

// sanitizeInput trims whitespace and drops control characters except tab and newlines.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}
