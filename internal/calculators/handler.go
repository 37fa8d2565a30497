// Package calculators exposes the public estimate endpoints: the cost
// segregation and R&D credit calculators, their lead capture forms, and the
// PDF copies of an estimate.
package calculators

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"taxsavings-backend/internal/estimate"
	"taxsavings-backend/internal/httpx"
	"taxsavings-backend/internal/leads"
	"taxsavings-backend/internal/middleware"
	"taxsavings-backend/internal/reports"
	"taxsavings-backend/internal/transport"
	"taxsavings-backend/internal/validation"
)

// LeadSink captures a lead and schedules its notifications.
type LeadSink interface {
	Capture(ctx context.Context, req leads.CaptureRequest) (leads.Lead, error)
	NotifyAsync(lead leads.Lead)
}

// SubmissionFailedMessage is shown when the lead could not be stored; the
// estimate is returned alongside it.
const SubmissionFailedMessage = "we could not save your request, please try again"

type Handler struct {
	leads    LeadSink
	val      *validation.Validator
	log      *slog.Logger
	location *time.Location
	now      func() time.Time
}

func NewHandler(sink LeadSink, val *validation.Validator, location *time.Location, log *slog.Logger) *Handler {
	if location == nil {
		location = time.UTC
	}
	return &Handler{
		leads:    sink,
		val:      val,
		log:      log,
		location: location,
		now:      time.Now,
	}
}

type costSegLeadRequest struct {
	estimate.CostSegForm
	Contact leads.Contact `json:"contact"`
}

type rdCreditLeadRequest struct {
	estimate.RDCreditForm
	Contact leads.Contact `json:"contact"`
}

type rdCreditResponse struct {
	estimate.RDCreditEstimate
	EligibilityScoreDisplay string `json:"eligibilityScoreDisplay"`
}

type leadRef struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	PipelineStage string `json:"pipelineStage"`
}

func (h *Handler) PropertyTypes(w http.ResponseWriter, r *http.Request) {
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items": estimate.PropertyTypes,
	})
}

func (h *Handler) Activities(w http.ResponseWriter, r *http.Request) {
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items": estimate.Activities,
	})
}

func (h *Handler) CostSegregation(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	var form estimate.CostSegForm
	if err := httpx.DecodeJSON(r.Body, &form); err != nil {
		log.Warn("cost seg estimate: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	_, est, ok := h.costSegEstimate(w, log, form)
	if !ok {
		return
	}

	log.Info("cost seg estimate: ok", slog.Float64("property_cost", est.PropertyCost))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"estimate": est.Rounded()})
}

func (h *Handler) RDCredit(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	var form estimate.RDCreditForm
	if err := httpx.DecodeJSON(r.Body, &form); err != nil {
		log.Warn("rd credit estimate: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	est, ok := h.rdCreditEstimate(w, log, form)
	if !ok {
		return
	}

	log.Info("rd credit estimate: ok", slog.Int("activities", est.SelectedActivities))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"estimate": rdResponse(est)})
}

func (h *Handler) CostSegregationLead(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	var req costSegLeadRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("cost seg lead: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Var(strings.TrimSpace(req.PropertyType), "required"); err != nil {
		log.Warn("cost seg lead: property type missing")
		transport.WriteError(w, http.StatusBadRequest, "validation error", map[string]string{"propertyType": "required"})
		return
	}
	if !h.validContact(w, log, "cost seg lead", req.Contact) {
		return
	}

	in, est, ok := h.costSegEstimate(w, log, req.CostSegForm)
	if !ok {
		return
	}

	h.capture(w, r, log, "cost seg lead", leads.CaptureRequest{
		Contact:  req.Contact,
		Estimate: leads.CostSegSummary(in, est),
	}, est.Rounded())
}

func (h *Handler) RDCreditLead(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	var req rdCreditLeadRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("rd credit lead: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if !h.validContact(w, log, "rd credit lead", req.Contact) {
		return
	}

	est, ok := h.rdCreditEstimate(w, log, req.RDCreditForm)
	if !ok {
		return
	}

	h.capture(w, r, log, "rd credit lead", leads.CaptureRequest{
		Contact:  req.Contact,
		Estimate: leads.RDCreditSummary(est),
	}, rdResponse(est))
}

func (h *Handler) CostSegregationReport(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	var form estimate.CostSegForm
	if err := httpx.DecodeJSON(r.Body, &form); err != nil {
		log.Warn("cost seg report: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	in, est, ok := h.costSegEstimate(w, log, form)
	if !ok {
		return
	}

	doc, err := reports.CostSegPDF(in, est, h.now().In(h.location))
	if err != nil {
		log.Error("cost seg report: render failed", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "report failed", nil)
		return
	}
	transport.WriteAttachment(w, reports.ContentType, "cost-segregation-estimate.pdf", doc)
}

func (h *Handler) RDCreditReport(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	var form estimate.RDCreditForm
	if err := httpx.DecodeJSON(r.Body, &form); err != nil {
		log.Warn("rd credit report: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	est, ok := h.rdCreditEstimate(w, log, form)
	if !ok {
		return
	}

	doc, err := reports.RDCreditPDF(est, h.now().In(h.location))
	if err != nil {
		log.Error("rd credit report: render failed", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "report failed", nil)
		return
	}
	transport.WriteAttachment(w, reports.ContentType, "rd-credit-estimate.pdf", doc)
}

func (h *Handler) costSegEstimate(w http.ResponseWriter, log *slog.Logger, form estimate.CostSegForm) (estimate.CostSegInput, estimate.CostSegEstimate, bool) {
	if err := h.val.Struct(form); err != nil {
		_, normErr := estimate.NormalizeCostSegForm(form)
		h.writeFormError(w, log, "cost seg estimate", err, normErr)
		return estimate.CostSegInput{}, estimate.CostSegEstimate{}, false
	}

	in, err := estimate.NormalizeCostSegForm(form)
	if err == nil {
		var est estimate.CostSegEstimate
		if est, err = estimate.EstimateCostSegregation(in); err == nil {
			return in, est, true
		}
	}
	h.writeEstimateError(w, log, "cost seg estimate", err)
	return estimate.CostSegInput{}, estimate.CostSegEstimate{}, false
}

func (h *Handler) rdCreditEstimate(w http.ResponseWriter, log *slog.Logger, form estimate.RDCreditForm) (estimate.RDCreditEstimate, bool) {
	if err := h.val.Struct(form); err != nil {
		_, normErr := estimate.NormalizeRDCreditForm(form)
		h.writeFormError(w, log, "rd credit estimate", err, normErr)
		return estimate.RDCreditEstimate{}, false
	}

	in, err := estimate.NormalizeRDCreditForm(form)
	if err == nil {
		var est estimate.RDCreditEstimate
		if est, err = estimate.EstimateRDCredit(in); err == nil {
			return est, true
		}
	}
	h.writeEstimateError(w, log, "rd credit estimate", err)
	return estimate.RDCreditEstimate{}, false
}

func (h *Handler) writeEstimateError(w http.ResponseWriter, log *slog.Logger, op string, err error) {
	if details := estimate.Details(err); details != nil {
		log.Warn(op+": validation error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}
	log.Error(op+": unexpected error", slog.String("error", err.Error()))
	transport.WriteError(w, http.StatusInternalServerError, "estimate failed", nil)
}

// writeFormError reports a form rejected by its validate tags. The
// normalizer's error, when present, names the field with its input kind.
func (h *Handler) writeFormError(w http.ResponseWriter, log *slog.Logger, op string, tagErr, normErr error) {
	details := estimate.Details(normErr)
	if details == nil {
		details = httpx.ValidationDetails(h.val.ValidationErrors(tagErr))
	}
	log.Warn(op+": validation error", slog.String("error", tagErr.Error()))
	transport.WriteError(w, http.StatusBadRequest, "validation error", details)
}

func (h *Handler) validContact(w http.ResponseWriter, log *slog.Logger, op string, contact leads.Contact) bool {
	if err := h.val.Struct(contact); err != nil {
		log.Warn(op + ": validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return false
	}
	return true
}

// capture stores the lead. On a store failure the already computed estimate
// is returned with the error so the visitor keeps their figures.
func (h *Handler) capture(w http.ResponseWriter, r *http.Request, log *slog.Logger, op string, req leads.CaptureRequest, shown interface{}) {
	lead, err := h.leads.Capture(r.Context(), req)
	if err != nil {
		if errors.Is(err, leads.ErrSubmission) {
			log.Error(op+": store failed", slog.String("error", err.Error()))
			transport.WriteJSON(w, http.StatusBadGateway, map[string]interface{}{
				"error":    SubmissionFailedMessage,
				"estimate": shown,
			})
			return
		}
		log.Error(op+": capture failed", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "lead capture failed", nil)
		return
	}

	h.leads.NotifyAsync(lead)

	log.Info(op+": ok", slog.String("lead_id", lead.ID), slog.String("source", lead.LeadSource))
	transport.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"estimate": shown,
		"lead": leadRef{
			ID:            lead.ID,
			Status:        lead.Status,
			PipelineStage: lead.PipelineStage,
		},
	})
}

func rdResponse(est estimate.RDCreditEstimate) rdCreditResponse {
	return rdCreditResponse{
		RDCreditEstimate:        est.Rounded(),
		EligibilityScoreDisplay: est.DisplayScore() + "%",
	}
}

func (h *Handler) logWithRequest(r *http.Request) *slog.Logger {
	if r == nil {
		return h.log
	}
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return h.log.With(slog.String("request_id", id))
	}
	return h.log
}
