package models

// RouteStatus represents whether a route is in service
type RouteStatus string

const (
	RouteStatusActive   RouteStatus = "active"
	RouteStatusInactive RouteStatus = "inactive"
)

// Route represents a transit route
type Route struct {
	ID         string      `json:"id" db:"id" bson:"_id"`
	Name       string      `json:"name" db:"name" bson:"name"`
	StartPoint string      `json:"startPoint" db:"start_point" bson:"startPoint"`
	EndPoint   string      `json:"endPoint" db:"end_point" bson:"endPoint"`
	Status     RouteStatus `json:"status" db:"status" bson:"status"`
}
