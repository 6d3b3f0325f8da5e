package handle

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"restobill/internal/order/app/core"
	"restobill/internal/order/app/services"
	"restobill/internal/order/domain/dto"
	"restobill/internal/status"
	"restobill/pkg/logger"
)

type OrderHandler struct {
	orderService *services.OrderService
	mylog        logger.Logger
}

func NewOrderHandler(orderService *services.OrderService, mylog logger.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		mylog:        mylog,
	}
}

func (oh *OrderHandler) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.CreateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			oh.mylog.Action("parse_failed").Error("Failed to parse order", err)
			jsonError(w, http.StatusBadRequest, errors.New("failed to parse JSON"))
			return
		}

		newOrder, err := oh.orderService.Create(r.Context(), req)
		if err != nil {
			if errors.Is(err, core.ErrDBConn) {
				jsonError(w, http.StatusInternalServerError, err)
				return
			}
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		jsonResponse(w, http.StatusCreated, newOrder)
	}
}

func (oh *OrderHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hotelID := r.PathValue("hotelID")

		var filter dto.ListFilter
		query := r.URL.Query()
		if v := query.Get("staff_id"); v != "" {
			filter.StaffID = &v
		}
		if v := query.Get("session_id"); v != "" {
			filter.SessionID = &v
		}
		if v := query.Get("from"); v != "" {
			from, err := time.Parse(time.RFC3339, v)
			if err != nil {
				jsonError(w, http.StatusBadRequest, errors.New("invalid from timestamp"))
				return
			}
			filter.From = &from
		}
		if v := query.Get("to"); v != "" {
			to, err := time.Parse(time.RFC3339, v)
			if err != nil {
				jsonError(w, http.StatusBadRequest, errors.New("invalid to timestamp"))
				return
			}
			filter.To = &to
		}

		orders, err := oh.orderService.List(r.Context(), hotelID, filter)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, err)
			return
		}
		jsonResponse(w, http.StatusOK, orders)
	}
}

func (oh *OrderHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := orderID(r)
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		order, err := oh.orderService.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, core.ErrOrderNotFound) {
				jsonError(w, http.StatusNotFound, err)
				return
			}
			jsonError(w, http.StatusInternalServerError, err)
			return
		}
		jsonResponse(w, http.StatusOK, order)
	}
}

func (oh *OrderHandler) UpdateStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := orderID(r)
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		var req dto.StatusUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, http.StatusBadRequest, errors.New("failed to parse JSON"))
			return
		}

		order, err := oh.orderService.ChangeStatus(r.Context(), id, req)
		if err != nil {
			jsonError(w, statusErrorCode(err), err)
			return
		}
		jsonResponse(w, http.StatusOK, order)
	}
}

func (oh *OrderHandler) UpdateItems() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := orderID(r)
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		var req dto.UpdateItemsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, http.StatusBadRequest, errors.New("failed to parse JSON"))
			return
		}

		order, err := oh.orderService.UpdateItems(r.Context(), id, req)
		if err != nil {
			switch {
			case errors.Is(err, core.ErrOrderNotFound):
				jsonError(w, http.StatusNotFound, err)
			case errors.Is(err, core.ErrItemsLocked),
				errors.Is(err, core.ErrNoItemsLeft),
				errors.Is(err, core.ErrInvalidQuantity),
				errors.Is(err, core.ErrFieldIsEmpty):
				jsonError(w, http.StatusConflict, err)
			default:
				jsonError(w, http.StatusInternalServerError, err)
			}
			return
		}
		jsonResponse(w, http.StatusOK, order)
	}
}

func (oh *OrderHandler) RequestHelp() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := orderID(r)
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		if err := oh.orderService.RequestHelp(r.Context(), id); err != nil {
			if errors.Is(err, core.ErrOrderNotFound) {
				jsonError(w, http.StatusNotFound, err)
				return
			}
			jsonError(w, http.StatusInternalServerError, err)
			return
		}
		jsonResponse(w, http.StatusAccepted, map[string]string{"status": "help requested"})
	}
}

func orderID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid order id")
	}
	return id, nil
}

func statusErrorCode(err error) int {
	switch {
	case errors.Is(err, core.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, status.ErrUnknownStatus),
		errors.Is(err, status.ErrUnknownRole),
		errors.Is(err, core.ErrInvalidPayment),
		errors.Is(err, core.ErrFieldIsEmpty):
		return http.StatusBadRequest
	case errors.Is(err, status.ErrInvalidTransition),
		errors.Is(err, status.ErrAlreadyPassed),
		errors.Is(err, status.ErrRoleNotAllowed),
		errors.Is(err, core.ErrBillRequired):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
