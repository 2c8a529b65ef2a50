// src/handlers/customer_handler.go
package handlers

import (
	"fmt"
	"net/http"

	"github.com/username/dolarhistorico/src/actions"
	"github.com/username/dolarhistorico/src/logger"
	"github.com/username/dolarhistorico/src/security/validation"
	"github.com/username/dolarhistorico/src/ui"
	"github.com/username/dolarhistorico/src/utils"
)

type CustomerHandler struct {
	deps               actions.Deps
	maxUploadSizeBytes int64
}

func NewCustomerHandler(deps actions.Deps, maxUploadSizeBytes int64) *CustomerHandler {
	return &CustomerHandler{deps: deps, maxUploadSizeBytes: maxUploadSizeBytes}
}

// HandleImport replaces the customers sheet with the XML export sent in the "file" form field.
func (h *CustomerHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	maxMB := h.maxUploadSizeBytes / (1024 * 1024)

	if err := r.ParseMultipartForm(h.maxUploadSizeBytes); err != nil {
		log.Warn("Failed to parse multipart form or request too large", "error", err, "limit", h.maxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("No se pudo procesar el formulario o el archivo es demasiado grande (máx. %d MB)", maxMB), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		log.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "No se encontró el archivo. Use el campo 'file'.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > h.maxUploadSizeBytes {
		log.Warn("Uploaded file header reports size too large", "fileSize", fileHeader.Size, "limit", h.maxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Archivo demasiado grande (máx. %d MB)", maxMB), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(r.Context(), clientContentType); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	detectedContentType, err := validation.ValidateFileContentByMagicBytes(r.Context(), file)
	if err != nil {
		log.Warn("Server-side file content validation failed", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	log.Info("Processing customer import", "filename", fileHeader.Filename, "size", fileHeader.Size,
		"clientType", clientContentType, "detectedType", detectedContentType)

	in := ui.NewScripted()
	report, err := newMenu(r.Context(), h.deps, in).ImportCustomers(r.Context(), file)
	writeActionResult(w, ActionResponse{Import: &report}, in, err)
}
