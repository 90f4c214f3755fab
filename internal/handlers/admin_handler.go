package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"partyflow/config"
	"partyflow/internal/ledger"
	"partyflow/internal/promo"
	"partyflow/internal/services"
	"partyflow/models"
	"partyflow/utils"
)

const (
	adminCookie     = "admin_session"
	adminSessionTTL = 24 * time.Hour
)

// AdminHandler serves the dashboard API behind a cookie session.
type AdminHandler struct {
	ledger    *ledger.Service
	store     *ledger.PBStore
	broadcast *services.BroadcastService
	promo     *promo.Service
	redis     *redis.Client
	cfg       *config.Config
}

func NewAdminHandler(ledgerService *ledger.Service, store *ledger.PBStore, broadcast *services.BroadcastService, promoService *promo.Service, redisClient *redis.Client, cfg *config.Config) *AdminHandler {
	return &AdminHandler{
		ledger:    ledgerService,
		store:     store,
		broadcast: broadcast,
		promo:     promoService,
		redis:     redisClient,
		cfg:       cfg,
	}
}

func adminSessionKey(token string) string {
	return "admin_session:" + token
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login - start a dashboard session
func (h *AdminHandler) Login(e *core.RequestEvent) error {
	var req loginRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}

	if req.Username != h.cfg.AdminUser ||
		bcrypt.CompareHashAndPassword([]byte(h.cfg.AdminPasswordHash), []byte(req.Password)) != nil {
		return apis.NewUnauthorizedError("Invalid credentials", nil)
	}

	token, err := utils.GenerateCode(32)
	if err != nil {
		return apis.NewInternalServerError("Failed to start session", err)
	}

	ctx := e.Request.Context()
	if err := h.redis.Set(ctx, adminSessionKey(token), "1", adminSessionTTL).Err(); err != nil {
		return apis.NewInternalServerError("Failed to start session", err)
	}

	http.SetCookie(e.Response, &http.Cookie{
		Name:     adminCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(adminSessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return e.JSON(http.StatusOK, map[string]any{"ok": true})
}

// Logout - end the dashboard session
func (h *AdminHandler) Logout(e *core.RequestEvent) error {
	if cookie, err := e.Request.Cookie(adminCookie); err == nil {
		h.redis.Del(e.Request.Context(), adminSessionKey(cookie.Value))
	}

	http.SetCookie(e.Response, &http.Cookie{
		Name:     adminCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	return e.JSON(http.StatusOK, map[string]any{"ok": true})
}

func (h *AdminHandler) authorized(e *core.RequestEvent) bool {
	cookie, err := e.Request.Cookie(adminCookie)
	if err != nil || cookie.Value == "" {
		return false
	}
	n, err := h.redis.Exists(e.Request.Context(), adminSessionKey(cookie.Value)).Result()
	return err == nil && n > 0
}

// GetStats - headline dashboard numbers
func (h *AdminHandler) GetStats(e *core.RequestEvent) error {
	if !h.authorized(e) {
		return apis.NewUnauthorizedError("Admin access required", nil)
	}

	stats, err := h.store.Stats(e.Request.Context())
	if err != nil {
		return apis.NewInternalServerError("Failed to load stats", err)
	}
	return e.JSON(http.StatusOK, stats)
}

// ListEvents - paginated event table with sales figures
func (h *AdminHandler) ListEvents(e *core.RequestEvent) error {
	if !h.authorized(e) {
		return apis.NewUnauthorizedError("Admin access required", nil)
	}

	query := e.Request.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(query.Get("per_page"))
	if perPage < 1 || perPage > 100 {
		perPage = 10
	}
	active := query.Get("show") != "archived"

	events, totalPages, err := h.store.EventsPage(e.Request.Context(), page, perPage, query.Get("search"), active)
	if err != nil {
		return apis.NewInternalServerError("Failed to load events", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"events":      events,
		"page":        page,
		"total_pages": totalPages,
	})
}

type createEventRequest struct {
	Name         string  `json:"name"`
	Date         string  `json:"date"`
	Location     string  `json:"location"`
	Price        float64 `json:"price"`
	TotalTickets int     `json:"total_tickets"`
}

// CreateEvent - add a new event to the catalogue
func (h *AdminHandler) CreateEvent(e *core.RequestEvent) error {
	if !h.authorized(e) {
		return apis.NewUnauthorizedError("Admin access required", nil)
	}

	var req createEventRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}
	if req.Name == "" || req.Location == "" {
		return apis.NewBadRequestError("name and location are required", nil)
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return apis.NewBadRequestError("date must be YYYY-MM-DD", err)
	}
	if req.Price < 0 || req.TotalTickets < 1 {
		return apis.NewBadRequestError("price must be non-negative and total_tickets positive", nil)
	}

	id, err := h.ledger.AddEvent(e.Request.Context(), models.Event{
		Name:         req.Name,
		Date:         req.Date,
		Location:     req.Location,
		Price:        req.Price,
		TotalTickets: req.TotalTickets,
	})
	if err != nil {
		return apis.NewInternalServerError("Failed to create event", err)
	}

	return e.JSON(http.StatusOK, map[string]any{"id": id})
}

// ArchiveEvent - take an event off sale
func (h *AdminHandler) ArchiveEvent(e *core.RequestEvent) error {
	return h.setActive(e, false)
}

// RestoreEvent - put an archived event back on sale
func (h *AdminHandler) RestoreEvent(e *core.RequestEvent) error {
	return h.setActive(e, true)
}

func (h *AdminHandler) setActive(e *core.RequestEvent, active bool) error {
	if !h.authorized(e) {
		return apis.NewUnauthorizedError("Admin access required", nil)
	}

	id := e.Request.PathValue("id")
	if err := h.ledger.SetEventActive(e.Request.Context(), id, active); err != nil {
		return apis.NewNotFoundError("Event not found", nil)
	}
	return e.JSON(http.StatusOK, map[string]any{"ok": true})
}

// ExportEventsCSV - event catalogue with sales figures
func (h *AdminHandler) ExportEventsCSV(e *core.RequestEvent) error {
	if !h.authorized(e) {
		return apis.NewUnauthorizedError("Admin access required", nil)
	}

	rows, err := h.store.ExportEvents(e.Request.Context())
	if err != nil {
		return apis.NewInternalServerError("Failed to export events", err)
	}

	e.Response.Header().Set("Content-Type", "text/csv")
	e.Response.Header().Set("Content-Disposition", `attachment; filename="events.csv"`)
	e.Response.WriteHeader(http.StatusOK)

	w := csv.NewWriter(e.Response)
	w.Write([]string{"ID", "Name", "Date", "Location", "Price", "Total Tickets", "Sold", "Remaining", "Revenue"})
	for _, row := range rows {
		w.Write([]string{
			row.ID,
			row.Name,
			row.Date,
			row.Location,
			fmt.Sprintf("%.2f", row.Price),
			strconv.Itoa(row.TotalTickets),
			strconv.Itoa(row.Sold),
			strconv.Itoa(row.Remaining),
			fmt.Sprintf("%.2f", row.Revenue),
		})
	}
	w.Flush()
	return w.Error()
}

// ExportGuestsCSV - full guest list across events
func (h *AdminHandler) ExportGuestsCSV(e *core.RequestEvent) error {
	if !h.authorized(e) {
		return apis.NewUnauthorizedError("Admin access required", nil)
	}

	rows, err := h.store.ExportGuests(e.Request.Context())
	if err != nil {
		return apis.NewInternalServerError("Failed to export guest list", err)
	}

	e.Response.Header().Set("Content-Type", "text/csv")
	e.Response.Header().Set("Content-Disposition", `attachment; filename="guest_list.csv"`)
	e.Response.WriteHeader(http.StatusOK)

	w := csv.NewWriter(e.Response)
	w.Write([]string{"Ticket ID", "Event", "Guest Name", "Phone Number", "Purchase Time", "Telegram ID", "QR Data"})
	for _, row := range rows {
		qr := models.Ticket{ID: row.TicketID, UserID: row.TelegramID}.QRPayload(row.EventName)
		w.Write([]string{
			row.TicketID,
			row.EventName,
			row.UserName,
			row.PhoneNumber,
			row.PurchaseTime,
			strconv.FormatInt(row.TelegramID, 10),
			qr,
		})
	}
	w.Flush()
	return w.Error()
}

type broadcastRequest struct {
	EventID string `json:"event_id"`
	Text    string `json:"text"`
}

// Broadcast - message every ticket holder of an event
func (h *AdminHandler) Broadcast(e *core.RequestEvent) error {
	if !h.authorized(e) {
		return apis.NewUnauthorizedError("Admin access required", nil)
	}

	var req broadcastRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}
	if req.EventID == "" || req.Text == "" {
		return apis.NewBadRequestError("event_id and text are required", nil)
	}

	sent, total, err := h.broadcast.BroadcastEvent(e.Request.Context(), req.EventID, req.Text)
	if err != nil {
		return apis.NewInternalServerError("Broadcast failed", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"sent":       sent,
		"recipients": total,
	})
}

type promoRequest struct {
	EventID string `json:"event_id"`
}

// GeneratePromo - AI-assisted promotional blurb for an event
func (h *AdminHandler) GeneratePromo(e *core.RequestEvent) error {
	if !h.authorized(e) {
		return apis.NewUnauthorizedError("Admin access required", nil)
	}

	var req promoRequest
	if err := e.BindBody(&req); err != nil || req.EventID == "" {
		return apis.NewBadRequestError("event_id is required", err)
	}

	event, err := h.ledger.Event(e.Request.Context(), req.EventID)
	if err != nil {
		return apis.NewNotFoundError("Event not found", nil)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"text": h.promo.Blurb(e.Request.Context(), *event),
	})
}
