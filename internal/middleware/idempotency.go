package middleware

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"gstvault/internal/common"
	"gstvault/internal/models"
	"gstvault/internal/repositories"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const idempotencyKeyTTL = 24 * time.Hour

// IdempotencyMiddleware makes mutating endpoints replay-safe. A request
// carrying an Idempotency-Key header claims the (key, user) pair before any
// work happens; duplicates either get 409 (still in flight) or the stored
// response verbatim.
type IdempotencyMiddleware struct {
	repo repositories.IdempotencyRepository
}

func NewIdempotencyMiddleware(repo repositories.IdempotencyRepository) *IdempotencyMiddleware {
	return &IdempotencyMiddleware{repo: repo}
}

func (m *IdempotencyMiddleware) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get("Idempotency-Key")
			if key == "" {
				return next(c) // opt-in
			}

			ctx := c.Request().Context()
			userID, ok := common.GetUserIDFromContext(ctx)
			if !ok {
				return next(c) // auth middleware rejects this request anyway
			}

			err := m.repo.Claim(ctx, key, userID, idempotencyKeyTTL)
			if err != nil {
				if errors.Is(err, common.ErrDuplicateKey) {
					return m.replay(c, key, userID)
				}
				// Bookkeeping failure must not fail the request.
				log.Printf("idempotency claim failed for key %s: %v", key, err)
				return next(c)
			}

			// Fresh claim: capture the actual outbound response at the
			// single point it is emitted, then finalize best effort.
			resBody := new(bytes.Buffer)
			writer := &captureResponseWriter{
				ResponseWriter: c.Response().Writer,
				tee:            io.MultiWriter(c.Response().Writer, resBody),
			}
			c.Response().Writer = writer

			if err := next(c); err != nil {
				c.Error(err) // let echo emit the error response so it is captured too
			}

			status := c.Response().Status
			finalStatus := models.IdempotencyCompleted
			if status >= 400 {
				finalStatus = models.IdempotencyFailed
			}
			if ferr := m.repo.Finalize(ctx, key, userID, finalStatus, status, resBody.Bytes()); ferr != nil {
				log.Printf("failed to save idempotency result for key %s: %v", key, ferr)
			}
			return nil
		}
	}
}

func (m *IdempotencyMiddleware) replay(c echo.Context, key string, userID uuid.UUID) error {
	ctx := c.Request().Context()
	existing, err := m.repo.Get(ctx, key, userID)
	if err != nil {
		// Row vanished between claim and read; proceed normally.
		return echo.NewHTTPError(http.StatusConflict, "Request already in progress")
	}

	if existing.Status == models.IdempotencyInProgress {
		return c.JSON(http.StatusConflict, common.CreateErrorResponse("IN_FLIGHT", "Request already in progress", nil))
	}

	status := http.StatusOK
	if existing.ResponseStatus != nil {
		status = *existing.ResponseStatus
	} else if existing.Status == models.IdempotencyFailed {
		status = http.StatusInternalServerError
	}
	return c.Blob(status, echo.MIMEApplicationJSON, existing.ResponseBody)
}

// captureResponseWriter tees everything written to the client into a buffer.
type captureResponseWriter struct {
	http.ResponseWriter
	tee io.Writer
}

func (w *captureResponseWriter) Write(b []byte) (int, error) {
	return w.tee.Write(b)
}

func (w *captureResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *captureResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := w.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}
