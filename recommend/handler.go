package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yuchenf/nightbite/models"
)

type store interface {
	CreateDecision(ctx context.Context, decision *models.Decision) (uint64, error)
	CreateRecommendations(ctx context.Context, recs []models.Recommendation) error
}

type eventPublisher interface {
	PublishDecision(event DecisionEvent) error
}

type Handler struct {
	store      store
	model      modelClient
	calibrator *Calibrator

	// events is nil when no NATS address is configured.
	events eventPublisher

	now func() time.Time
}

func NewHandler(store store, model modelClient, calibrator *Calibrator, events eventPublisher) *Handler {
	return &Handler{
		store:      store,
		model:      model,
		calibrator: calibrator,
		events:     events,
		now:        time.Now,
	}
}

// Recommend runs one request end to end: validate, store the decision,
// build the prompt, call the model, calibrate, store the recommendation
// rows, respond. A recommendation-insert failure is logged and the
// in-memory rows are returned anyway; every other failure aborts the
// request.
func (h *Handler) Recommend(ctx context.Context, req *RecommendRequest) (*RecommendResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	decision := decisionFromRequest(req)
	decisionID, err := h.store.CreateDecision(ctx, decision)
	if err != nil {
		return nil, err
	}

	prompt := buildPrompt(req, h.now())
	result, err := h.model.Recommend(ctx, prompt)
	if err != nil {
		return nil, err
	}

	recommendations := h.calibrator.Calibrate(result.Recommendations, req.budget())
	alternatives := h.calibrator.CalibrateAlternatives(result.Alternatives, req.budget())

	if err := h.store.CreateRecommendations(ctx, recommendationRows(decisionID, recommendations)); err != nil {
		// Best effort: the response still carries the calibrated rows.
		slog.Error("failed to store recommendations", "decision_id", decisionID, "error", err)
	}

	h.publishDecision(decisionID, req, result.Scene)

	priceRange := result.PriceRange
	if priceRange == "" {
		r := priceRangeFor(req.budget())
		priceRange = fmt.Sprintf("%d-%d元", r.Min, r.Max)
	}

	return &RecommendResponse{
		DecisionID:      decisionID,
		Scene:           result.Scene,
		BudgetLevel:     req.budget(),
		PriceRange:      priceRange,
		Recommendations: recommendations,
		Alternatives:    alternatives,
	}, nil
}

func decisionFromRequest(req *RecommendRequest) *models.Decision {
	decision := &models.Decision{
		TimeOfDay:      req.TimeOfDay,
		Mood:           req.Mood,
		HungerLevel:    req.HungerLevel,
		ExercisedToday: req.ExercisedToday != nil && *req.ExercisedToday,
		BudgetLevel:    req.budget(),
		ExcludedFoods:  req.ExcludedFoods,
	}

	if req.Location != nil {
		loc := models.NewGeoPoint(req.Location.Longitude, req.Location.Latitude)
		decision.Location = &loc
	}

	return decision
}

func recommendationRows(decisionID uint64, recs []Recommendation) []models.Recommendation {
	rows := make([]models.Recommendation, len(recs))
	for i, rec := range recs {
		rows[i] = models.Recommendation{
			DecisionID:     decisionID,
			FoodName:       rec.FoodName,
			Restaurant:     rec.Restaurant,
			Platform:       rec.Platform,
			EstimatedPrice: rec.EstimatedPrice,
			JumpKeyword:    rec.JumpKeyword,
			Explanation:    rec.Reason,
			RegretScore:    rec.RegretScore,
			RegretReason:   rec.RegretReason,
		}
	}

	return rows
}

func (h *Handler) publishDecision(decisionID uint64, req *RecommendRequest, scene string) {
	if h.events == nil {
		return
	}

	event := DecisionEvent{
		DecisionID:  decisionID,
		TimeOfDay:   req.TimeOfDay,
		Mood:        req.Mood,
		HungerLevel: req.HungerLevel,
		BudgetLevel: req.budget(),
		Scene:       scene,
		OccurredAt:  h.now(),
	}

	if err := h.events.PublishDecision(event); err != nil {
		slog.Warn("failed to publish decision event", "decision_id", decisionID, "error", err)
	}
}
