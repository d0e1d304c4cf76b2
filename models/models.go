package models

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Location struct {
	Lon, Lat float64
}

func NewGeoPoint(lng, lat float64) Location {
	return Location{
		Lon: lng,
		Lat: lat,
	}
}

func (g *Location) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case string:
		var err error
		data, err = hex.DecodeString(v)
		if err != nil {
			return err
		}
	case []byte:
		data = v
	default:
		return fmt.Errorf("expected string or []byte, got %T", value)
	}

	t, err := ewkb.Unmarshal(data)
	if err != nil {
		return err
	}

	if point, ok := t.(*geom.Point); ok {
		g.Lon = point.X()
		g.Lat = point.Y()

		return nil
	}

	return fmt.Errorf("expected Point, got %T", t)
}

func (loc Location) GormDataType() string {
	return "geometry"
}

func (loc Location) GormValue(ctx context.Context, db *gorm.DB) clause.Expr {
	return clause.Expr{
		SQL:  "ST_PointFromText(?)",
		Vars: []interface{}{fmt.Sprintf("POINT(%f %f)", loc.Lon, loc.Lat)},
	}
}

// Decision is one answered form: the user's state at the moment they asked
// for food. Rows are insert-only, one per request.
type Decision struct {
	ID             uint64         `gorm:"primaryKey" json:"id"`
	TimeOfDay      string         `json:"time_of_day"`
	Mood           string         `json:"mood"`
	HungerLevel    string         `json:"hunger_level"`
	ExercisedToday bool           `json:"exercised_today"`
	BudgetLevel    int            `json:"budget_level"`
	Location       *Location      `json:"location,omitempty"`
	ExcludedFoods  pq.StringArray `gorm:"type:text[]" json:"excluded_foods,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

func (d *Decision) TableName() string {
	return "decisions"
}

func (d *Decision) Stringify() string {
	return fmt.Sprintf("Decision: mood=%s, hunger=%s, time=%s, budget=%d", d.Mood, d.HungerLevel, d.TimeOfDay, d.BudgetLevel)
}

// Recommendation is one calibrated item returned for a decision.
type Recommendation struct {
	ID             uint64    `gorm:"primaryKey" json:"id"`
	DecisionID     uint64    `json:"decision_id"`
	FoodName       string    `json:"food_name"`
	Restaurant     string    `json:"restaurant"`
	Platform       string    `json:"platform"`
	EstimatedPrice float64   `json:"estimated_price"`
	JumpKeyword    string    `json:"jump_keyword"`
	Explanation    string    `json:"explanation"`
	RegretScore    int       `json:"regret_score"`
	RegretReason   string    `json:"regret_reason"`
	CreatedAt      time.Time `json:"created_at"`
}

func (r *Recommendation) TableName() string {
	return "recommendations"
}

func (r *Recommendation) Stringify() string {
	return fmt.Sprintf("Recommendation: %s @ %s (%s), %.0f yuan", r.FoodName, r.Restaurant, r.Platform, r.EstimatedPrice)
}
