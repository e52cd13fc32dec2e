package importcsv

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledger/internal/http/auth"
	"github.com/MrJamesThe3rd/ledger/internal/http/respond"
	"github.com/MrJamesThe3rd/ledger/internal/importer"
	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

const maxUploadSize = 10 << 20

type Handler struct {
	importSvc *importer.Service
}

func NewHandler(importSvc *importer.Service) *Handler {
	return &Handler{importSvc: importSvc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importCSV)
}

type transactionResponse struct {
	ID          uuid.UUID          `json:"id"`
	Type        transaction.Type   `json:"type"`
	Description string             `json:"description"`
	Amount      decimal.Decimal    `json:"amount"`
	Status      transaction.Status `json:"status"`
	DueDate     *time.Time         `json:"due_date,omitempty"`
	Category    *string            `json:"category,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

type importSuccessResponse struct {
	Imported     int                   `json:"imported"`
	Transactions []transactionResponse `json:"transactions"`
}

type paramsDTO struct {
	Type        transaction.Type   `json:"type"`
	Description string             `json:"description"`
	Amount      decimal.Decimal    `json:"amount"`
	Status      transaction.Status `json:"status"`
	DueDate     *time.Time         `json:"due_date,omitempty"`
	Category    *string            `json:"category,omitempty"`
}

type conflictDTO struct {
	Incoming paramsDTO           `json:"incoming"`
	Existing transactionResponse `json:"existing"`
}

type importConflictResponse struct {
	New       []paramsDTO   `json:"new"`
	Conflicts []conflictDTO `json:"conflicts"`
}

// importCSV stores the uploaded file's entries. When some of them already exist nothing
// is written and the conflicts come back with 409; resending with force=true skips the
// duplicate check.
func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	force := false
	if v := r.FormValue("force"); v != "" {
		var err error
		if force, err = strconv.ParseBool(v); err != nil {
			http.Error(w, "force must be a boolean", http.StatusBadRequest)
			return
		}
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	result, err := h.importSvc.Import(r.Context(), auth.TenantID(r.Context()), file, force)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if len(result.Conflicts) > 0 {
		resp := importConflictResponse{
			New:       make([]paramsDTO, 0, len(result.New)),
			Conflicts: make([]conflictDTO, 0, len(result.Conflicts)),
		}

		for _, p := range result.New {
			resp.New = append(resp.New, toParamsDTO(p))
		}

		for _, c := range result.Conflicts {
			resp.Conflicts = append(resp.Conflicts, conflictDTO{
				Incoming: toParamsDTO(c.Incoming),
				Existing: toTxResponse(c.Existing),
			})
		}

		respond.JSON(w, http.StatusConflict, resp)

		return
	}

	responses := make([]transactionResponse, 0, len(result.Imported))
	for _, tx := range result.Imported {
		responses = append(responses, toTxResponse(tx))
	}

	respond.JSON(w, http.StatusCreated, importSuccessResponse{
		Imported:     len(responses),
		Transactions: responses,
	})
}

func toTxResponse(tx *transaction.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		Type:        tx.Type,
		Description: tx.Description,
		Amount:      tx.Amount,
		Status:      tx.Status,
		DueDate:     tx.DueDate,
		Category:    tx.Category,
		CreatedAt:   tx.CreatedAt,
	}
}

func toParamsDTO(p transaction.CreateParams) paramsDTO {
	return paramsDTO{
		Type:        p.Type,
		Description: p.Description,
		Amount:      p.Amount,
		Status:      p.Status,
		DueDate:     p.DueDate,
		Category:    p.Category,
	}
}
