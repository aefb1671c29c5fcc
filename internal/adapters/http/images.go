package httpadapter

import (
	"errors"
	"net/http"
	"time"

	"github.com/medwise/medwise-backend/internal/core/domain"
)

// multipartOverhead leaves room for boundaries and part headers around the image.
const multipartOverhead = 1 << 20

type imageStatusView struct {
	Status           domain.AnalysisStatus `json:"status"`
	ImageID          string                `json:"imageId"`
	OriginalFilename string                `json:"originalFilename"`
	UploadedAt       time.Time             `json:"uploadedAt"`
	CompletedAt      *time.Time            `json:"completedAt"`
	Error            *string               `json:"error"`
	Data             any                   `json:"data"`
}

func newImageStatusView(image *domain.ImageUpload) imageStatusView {
	view := imageStatusView{
		Status:           image.Status,
		ImageID:          image.ID,
		OriginalFilename: image.OriginalFilename,
		UploadedAt:       image.UploadedAt,
		CompletedAt:      image.CompletedAt,
		Data:             image.AnalysisResult,
	}
	if image.ErrorMessage != "" {
		msg := image.ErrorMessage
		view.Error = &msg
	}
	return view
}

func (rt *Router) uploadImage(w http.ResponseWriter, r *http.Request) {
	if rt.cfg.UploadMaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.UploadMaxBytes+multipartOverhead)
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, domain.WrapError(domain.ErrPayloadTooLarge, "upload image", err))
			return
		}
		writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "upload image", errors.New("multipart field 'file' is required")))
		return
	}
	defer file.Close()

	image, err := rt.svc.Images.Submit(r.Context(), domain.ImageSubmission{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Body:        file,
		UserID:      userFromContext(r.Context()),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":  "success",
		"imageId": image.ID,
	})
}

func (rt *Router) getImageStatus(w http.ResponseWriter, r *http.Request) {
	image, err := rt.svc.ImageReads.GetStatus(r.Context(), r.PathValue("image_id"), userFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newImageStatusView(image))
}

func (rt *Router) getAnalysisResponse(w http.ResponseWriter, r *http.Request) {
	response, err := rt.svc.ImageReads.GetAnalysisResponse(r.Context(), r.PathValue("image_id"), userFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func (rt *Router) listImages(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	images, err := rt.svc.ImageReads.ListByUser(r.Context(), userFromContext(r.Context()), page)
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]imageStatusView, 0, len(images))
	for i := range images {
		views = append(views, newImageStatusView(&images[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"images": views})
}
