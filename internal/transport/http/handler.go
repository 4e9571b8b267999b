package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kangminLeo/Ironbot/internal/domain"
	"github.com/kangminLeo/Ironbot/internal/service"
	httpmw "github.com/kangminLeo/Ironbot/internal/transport/http/middleware"
)

type Handler struct {
	ledger   *service.Ledger
	shop     *service.Shop
	settings service.SettingsStore
}

func NewHandler(ledger *service.Ledger, shop *service.Shop, settings service.SettingsStore) *Handler {
	return &Handler{
		ledger:   ledger,
		shop:     shop,
		settings: settings,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

// GET /communities/{cid}/participants/{uid}/points
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	cid, ok := pathID(r, "cid")
	uid, ok2 := pathID(r, "uid")
	if !ok || !ok2 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
		return
	}
	points, err := h.ledger.Balance(r.Context(), cid, uid)
	if err != nil {
		slog.Error("handler.GetBalance:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, BalanceResponse{CommunityID: cid, ParticipantID: uid, Points: points})
}

// GET /communities/{cid}/leaderboard?limit=
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	cid, ok := pathID(r, "cid")
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
		return
	}
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}

	entries, err := h.ledger.Leaderboard(r.Context(), cid, limit)
	if err != nil {
		slog.Error("handler.GetLeaderboard:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	resp := LeaderboardResponse{Items: make([]LeaderboardItem, 0, len(entries))}
	for _, e := range entries {
		resp.Items = append(resp.Items, LeaderboardItem{ParticipantID: e.ParticipantID, Points: e.Points})
	}

	writeJSON(w, http.StatusOK, resp)
}

// POST /communities/{cid}/participants/{uid}/points/add
func (h *Handler) AddPoints(w http.ResponseWriter, r *http.Request) {
	h.adjustPoints(w, r, h.ledger.AddPoints)
}

// POST /communities/{cid}/participants/{uid}/points/remove
func (h *Handler) RemovePoints(w http.ResponseWriter, r *http.Request) {
	h.adjustPoints(w, r, h.ledger.RemovePoints)
}

func (h *Handler) adjustPoints(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, cid, uid, amount int64) (int64, error)) {
	cid, ok := pathID(r, "cid")
	uid, ok2 := pathID(r, "uid")
	if !ok || !ok2 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
		return
	}
	var req PointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	total, err := op(r.Context(), cid, uid, req.Amount)
	if err != nil {
		if errors.Is(err, domain.ErrNonPositiveAmount) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "amount must be positive"})
			return
		}
		slog.Error("handler.adjustPoints:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	slog.Info("points adjusted",
		"community", cid, "participant", uid, "amount", req.Amount,
		"by", httpmw.SubjectFromCtx(r.Context()))
	writeJSON(w, http.StatusOK, BalanceResponse{CommunityID: cid, ParticipantID: uid, Points: total})
}

// POST /communities/{cid}/participants/{uid}/points/set
func (h *Handler) SetPoints(w http.ResponseWriter, r *http.Request) {
	cid, ok := pathID(r, "cid")
	uid, ok2 := pathID(r, "uid")
	if !ok || !ok2 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
		return
	}
	var req SetPointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	if err := h.ledger.SetPoints(r.Context(), cid, uid, req.Value); err != nil {
		if errors.Is(err, domain.ErrNegativePoints) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "value must be non-negative"})
			return
		}
		slog.Error("handler.SetPoints:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	slog.Info("points set",
		"community", cid, "participant", uid, "value", req.Value,
		"by", httpmw.SubjectFromCtx(r.Context()))
	writeJSON(w, http.StatusOK, BalanceResponse{CommunityID: cid, ParticipantID: uid, Points: req.Value})
}

// PUT /communities/{cid}/settings/afk-room
func (h *Handler) SetAFKRoom(w http.ResponseWriter, r *http.Request) {
	h.setRoom(w, r, h.settings.SetAFKRoom)
}

// PUT /communities/{cid}/settings/log-room
func (h *Handler) SetLogRoom(w http.ResponseWriter, r *http.Request) {
	h.setRoom(w, r, h.settings.SetLogRoom)
}

func (h *Handler) setRoom(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, communityID int64, roomID *int64) error) {
	cid, ok := pathID(r, "cid")
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
		return
	}
	var req SetRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	if req.RoomID != nil && *req.RoomID <= 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid room id"})
		return
	}

	if err := op(r.Context(), cid, req.RoomID); err != nil {
		slog.Error("handler.setRoom:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	slog.Info("community setting updated",
		"community", cid, "by", httpmw.SubjectFromCtx(r.Context()))
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// GET /communities/{cid}/shop
func (h *Handler) ListShop(w http.ResponseWriter, r *http.Request) {
	cid, ok := pathID(r, "cid")
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
		return
	}
	items, err := h.shop.List(r.Context(), cid)
	if err != nil {
		slog.Error("handler.ListShop:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	resp := ShopListResponse{Items: make([]ShopItemResponse, 0, len(items))}
	for _, it := range items {
		resp.Items = append(resp.Items, ShopItemResponse{ID: it.ID, Name: it.Name, Price: it.Price, Stock: it.Stock})
	}

	writeJSON(w, http.StatusOK, resp)
}

// POST /communities/{cid}/shop
func (h *Handler) AddShopItem(w http.ResponseWriter, r *http.Request) {
	cid, ok := pathID(r, "cid")
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
		return
	}
	var req AddShopItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	item, err := h.shop.AddItem(r.Context(), cid, req.Name, req.Price, req.Stock)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrItemNameEmpty):
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "item name required"})
		case errors.Is(err, domain.ErrNegativePrice):
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "price must be non-negative"})
		default:
			slog.Error("handler.AddShopItem:", slog.Any("err", err))
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		}
		return
	}

	writeJSON(w, http.StatusCreated, ShopItemResponse{ID: item.ID, Name: item.Name, Price: item.Price, Stock: item.Stock})
}

// POST /communities/{cid}/shop/{itemID}/buy
func (h *Handler) BuyShopItem(w http.ResponseWriter, r *http.Request) {
	cid, ok := pathID(r, "cid")
	itemID, ok2 := pathID(r, "itemID")
	if !ok || !ok2 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
		return
	}
	var req BuyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ParticipantID <= 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	item, err := h.shop.Buy(r.Context(), cid, req.ParticipantID, itemID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrItemNotFound):
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "item not found"})
		case errors.Is(err, domain.ErrSoldOut):
			writeJSON(w, http.StatusConflict, ErrorResponse{Error: "item sold out"})
		case errors.Is(err, domain.ErrInsufficientPoints):
			writeJSON(w, http.StatusConflict, ErrorResponse{Error: "insufficient points"})
		default:
			slog.Error("handler.BuyShopItem:", slog.Any("err", err))
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		}
		return
	}

	writeJSON(w, http.StatusOK, PurchaseResponse{ItemID: item.ID, ItemName: item.Name, Price: item.Price})
}

// GET /communities/{cid}/participants/{uid}/purchases
func (h *Handler) GetPurchases(w http.ResponseWriter, r *http.Request) {
	cid, ok := pathID(r, "cid")
	uid, ok2 := pathID(r, "uid")
	if !ok || !ok2 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
		return
	}

	purchases, err := h.shop.History(r.Context(), cid, uid)
	if err != nil {
		slog.Error("handler.GetPurchases:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	resp := PurchaseHistoryResponse{Items: make([]PurchaseHistoryItem, 0, len(purchases))}
	for _, p := range purchases {
		resp.Items = append(resp.Items, PurchaseHistoryItem{ID: p.ID, ItemID: p.ItemID, CreatedAt: p.CreatedAt})
	}

	writeJSON(w, http.StatusOK, resp)
}
