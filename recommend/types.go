package main

import (
	"errors"
	"fmt"
)

// Fatal error kinds. Each maps to a 500 at the HTTP boundary.
var (
	ErrPersistence      = errors.New("数据存储失败")
	ErrModelUnavailable = errors.New("AI API 调用失败")
	ErrModelEmpty       = errors.New("AI 返回内容为空")
	ErrModelMalformed   = errors.New("AI 返回内容无法解析")
)

// MissingFieldError names the required request field that was absent.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("缺少必要字段: %s", e.Field)
}

type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// TimeContext is the client's own reading of the current meal slot. The
// prompt builder prefers it over the server clock when present.
type TimeContext struct {
	Period  string `json:"period"`
	Label   string `json:"label"`
	IsNight bool   `json:"isNight"`
}

// RecommendRequest is the POST /recommend body. The five required fields
// use pointers where the zero value is a legal answer, so an absent field
// can be told apart from a false/zero one.
type RecommendRequest struct {
	TimeOfDay      string       `json:"time_of_day"`
	Mood           string       `json:"mood"`
	HungerLevel    string       `json:"hunger_level"`
	ExercisedToday *bool        `json:"exercised_today"`
	BudgetLevel    *int         `json:"budget_level"`
	Location       *GeoPoint    `json:"location"`
	IsDaytime      *bool        `json:"is_daytime"`
	TimeContext    *TimeContext `json:"time_context"`
	ExcludedFoods  []string     `json:"excluded_foods"`
}

func (r *RecommendRequest) Validate() error {
	if r.TimeOfDay == "" {
		return &MissingFieldError{Field: "time_of_day"}
	}
	if r.Mood == "" {
		return &MissingFieldError{Field: "mood"}
	}
	if r.HungerLevel == "" {
		return &MissingFieldError{Field: "hunger_level"}
	}
	if r.ExercisedToday == nil {
		return &MissingFieldError{Field: "exercised_today"}
	}
	if r.BudgetLevel == nil {
		return &MissingFieldError{Field: "budget_level"}
	}

	return nil
}

// budget is only safe after Validate has passed.
func (r *RecommendRequest) budget() int {
	if r.BudgetLevel == nil {
		return 3
	}

	return *r.BudgetLevel
}

// Recommendation is the wire shape produced by the model and reshaped by
// the calibrator. The stored row lives in models.Recommendation.
type Recommendation struct {
	FoodName       string  `json:"food_name"`
	Restaurant     string  `json:"restaurant"`
	Platform       string  `json:"platform"`
	EstimatedPrice float64 `json:"estimated_price"`
	Reason         string  `json:"reason"`
	JumpKeyword    string  `json:"jump_keyword"`
	RegretScore    int     `json:"regret_score"`
	RegretReason   string  `json:"regret_reason"`
}

// ModelResult is the single JSON object the model is instructed to return.
type ModelResult struct {
	Scene           string           `json:"scene"`
	BudgetLevel     int              `json:"budget_level"`
	PriceRange      string           `json:"price_range"`
	Recommendations []Recommendation `json:"recommendations"`
	Alternatives    []Recommendation `json:"alternatives"`
}

type RecommendResponse struct {
	DecisionID      uint64           `json:"decision_id"`
	Scene           string           `json:"scene"`
	BudgetLevel     int              `json:"budget_level"`
	PriceRange      string           `json:"price_range"`
	Recommendations []Recommendation `json:"recommendations"`
	Alternatives    []Recommendation `json:"alternatives"`
}
