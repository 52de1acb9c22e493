package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"goomer/internal/domain/reviews"
	"goomer/internal/params"
	"goomer/internal/service"
)

// DeleteReviewResponse confirms a delete and lists images that could not be removed.
type DeleteReviewResponse struct {
	Message string `json:"message" example:"Review deleted successfully"`
	*service.DeleteReport
}

// listReviewsHandler godoc
//
//	@Summary		List reviews
//	@Description	Newest reviews first, capped at 100. X-Total-Count carries the number of matching reviews.
//	@Tags			reviews
//	@Produce		json
//	@Param			userId	query		string	false	"Only reviews written by this user"
//	@Success		200		{array}		reviews.Review
//	@Header			200		{integer}	X-Total-Count	"Matching reviews"
//	@Header			200		{integer}	X-Result-Limit	"Server side cap"
//	@Failure		500		{object}	ErrorResponse
//	@Router			/reviews [get]
func (app *application) listReviewsHandler(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))

	page, err := app.reviews.List(r.Context(), userID)
	if err != nil {
		app.internalServerError(w, r, "fetching reviews", err)
		return
	}

	list := page.Reviews
	if list == nil {
		list = []reviews.Review{}
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(page.Pagination.Total))
	w.Header().Set("X-Result-Limit", strconv.Itoa(service.ListAllLimit))

	if err := app.jsonResponse(w, http.StatusOK, list); err != nil {
		app.internalServerError(w, r, "fetching reviews", err)
	}
}

// listPaginatedReviewsHandler godoc
//
//	@Summary		List reviews page by page
//	@Description	Reviews ordered by creation date, newest first. limit is clamped to 50.
//	@Tags			reviews
//	@Produce		json
//	@Param			page	query		int		false	"Page number"	minimum(1)	default(1)
//	@Param			limit	query		int		false	"Page size"		minimum(1)	maximum(50)	default(10)
//	@Param			userId	query		string	false	"Only reviews written by this user"
//	@Success		200		{object}	reviews.Page
//	@Failure		500		{object}	ErrorResponse
//	@Router			/reviews/paginated [get]
func (app *application) listPaginatedReviewsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := params.ParsePagination(q)

	page, err := app.reviews.ListPaginated(r.Context(), p, strings.TrimSpace(q.Get("userId")))
	if err != nil {
		app.internalServerError(w, r, "fetching reviews", err)
		return
	}
	if page.Reviews == nil {
		page.Reviews = []reviews.Review{}
	}

	if err := app.jsonResponse(w, http.StatusOK, page); err != nil {
		app.internalServerError(w, r, "fetching reviews", err)
	}
}

// getReviewHandler godoc
//
//	@Summary	Get review by ID
//	@Tags		reviews
//	@Produce	json
//	@Param		id	path		string	true	"Review ID"
//	@Success	200	{object}	reviews.Review
//	@Failure	404	{object}	ErrorResponse
//	@Failure	500	{object}	ErrorResponse
//	@Router		/reviews/{id} [get]
func (app *application) getReviewHandler(w http.ResponseWriter, r *http.Request) {
	review, err := app.reviews.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		app.reviewErrorResponse(w, r, "fetching", err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, review); err != nil {
		app.internalServerError(w, r, "fetching review", err)
	}
}

// createReviewHandler godoc
//
//	@Summary		Create a review
//	@Description	Images are base64 strings (data URIs accepted). They are uploaded before the review is stored.
//	@Tags			reviews
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		service.CreateReviewInput	true	"Review"
//	@Success		201		{object}	reviews.Review
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse	"Image upload failed"
//	@Failure		500		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/reviews [post]
func (app *application) createReviewHandler(w http.ResponseWriter, r *http.Request) {
	var payload service.CreateReviewInput
	if err := readJSON(w, r, &payload, reviewMaxBodyBytes); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	review, err := app.reviews.Create(r.Context(), getIdentityFromContext(r), payload)
	if err != nil {
		app.reviewErrorResponse(w, r, "creating", err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, review); err != nil {
		app.internalServerError(w, r, "creating review", err)
	}
}

// updateReviewHandler godoc
//
//	@Summary		Update a review
//	@Description	Only the author may update. Omitted fields keep their value; images cannot be changed.
//	@Tags			reviews
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Review ID"
//	@Param			payload	body		service.UpdateReviewInput	true	"Fields to change"
//	@Success		200		{object}	reviews.Review
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/reviews/{id} [put]
func (app *application) updateReviewHandler(w http.ResponseWriter, r *http.Request) {
	var payload service.UpdateReviewInput
	if err := readJSON(w, r, &payload, defaultMaxBodyBytes); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	review, err := app.reviews.Update(r.Context(), getIdentityFromContext(r), chi.URLParam(r, "id"), payload)
	if err != nil {
		app.reviewErrorResponse(w, r, "updating", err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, review); err != nil {
		app.internalServerError(w, r, "updating review", err)
	}
}

// deleteReviewHandler godoc
//
//	@Summary		Delete a review
//	@Description	The author or an admin may delete. Images are removed first; failures are listed but do not stop the delete.
//	@Tags			reviews
//	@Produce		json
//	@Param			id	path		string	true	"Review ID"
//	@Success		200	{object}	DeleteReviewResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/reviews/{id} [delete]
func (app *application) deleteReviewHandler(w http.ResponseWriter, r *http.Request) {
	report, err := app.reviews.Delete(r.Context(), getIdentityFromContext(r), chi.URLParam(r, "id"))
	if err != nil {
		app.reviewErrorResponse(w, r, "deleting", err)
		return
	}

	resp := DeleteReviewResponse{Message: "Review deleted successfully", DeleteReport: report}
	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, "deleting review", err)
	}
}
