package handle

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"restobill/internal/billing/app/core"
	"restobill/internal/billing/app/services"
	"restobill/internal/billing/domain/dto"
	"restobill/pkg/logger"
)

type BillHandler struct {
	billingService *services.BillingService
	mylog          logger.Logger
}

func NewBillHandler(billingService *services.BillingService, mylog logger.Logger) *BillHandler {
	return &BillHandler{
		billingService: billingService,
		mylog:          mylog,
	}
}

func (bh *BillHandler) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.CreateBillRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			bh.mylog.Action("parse_failed").Error("Failed to parse bill request", err)
			jsonError(w, http.StatusBadRequest, errors.New("failed to parse JSON"))
			return
		}

		bill, err := bh.billingService.Reconcile(r.Context(), req)
		if err != nil {
			switch {
			case errors.Is(err, core.ErrOrderNotFound):
				jsonError(w, http.StatusNotFound, err)
			case errors.Is(err, core.ErrOrderNotBillable), errors.Is(err, core.ErrBillExists):
				jsonError(w, http.StatusConflict, err)
			default:
				jsonError(w, http.StatusInternalServerError, err)
			}
			return
		}
		jsonResponse(w, http.StatusCreated, bill)
	}
}

func (bh *BillHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bills, err := bh.billingService.List(r.Context(), r.PathValue("hotelID"))
		if err != nil {
			jsonError(w, http.StatusInternalServerError, err)
			return
		}
		jsonResponse(w, http.StatusOK, bills)
	}
}

func (bh *BillHandler) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := bh.billingService.Delete(r.Context(), r.PathValue("id"))
		if err != nil {
			if errors.Is(err, core.ErrBillNotFound) {
				jsonError(w, http.StatusNotFound, err)
				return
			}
			jsonError(w, http.StatusInternalServerError, err)
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func (bh *BillHandler) RecycleBinList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := bh.billingService.RecycleBin().List(r.PathValue("hotelID"))
		if err != nil {
			jsonError(w, http.StatusInternalServerError, err)
			return
		}
		jsonResponse(w, http.StatusOK, entries)
	}
}

func (bh *BillHandler) RecycleBinExport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hotelID := r.PathValue("hotelID")
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", "recycle_bin_"+hotelID+".csv"))

		if err := bh.billingService.RecycleBin().ExportCSV(hotelID, w); err != nil {
			bh.mylog.Action("export_failed").Error("Failed to export recycle bin", err)
		}
	}
}
