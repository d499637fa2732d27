package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"blood-donation-backend/internal/models"
	"blood-donation-backend/internal/repository"
	"blood-donation-backend/pkg/utils"
)

const (
	DefaultRadiusKm = 10.0
	MaxRadiusKm     = 500.0

	NearbyEvents    = "events"
	NearbyHospitals = "hospitals"
	NearbyAll       = "all"
)

type LocationService struct {
	eventRepo    EventStore
	hospitalRepo HospitalStore
	now          func() time.Time
}

func NewLocationService(eventRepo EventStore, hospitalRepo HospitalStore) *LocationService {
	return &LocationService{eventRepo: eventRepo, hospitalRepo: hospitalRepo, now: time.Now}
}

type NearbyQuery struct {
	Lat      float64
	Lng      float64
	RadiusKm float64
	Type     string
}

type NearbyEvent struct {
	models.Event
	DistanceKm float64 `json:"distance_km"`
}

type NearbyHospital struct {
	models.Hospital
	DistanceKm float64 `json:"distance_km"`
}

type NearbyResult struct {
	Events    []NearbyEvent    `json:"events,omitempty"`
	Hospitals []NearbyHospital `json:"hospitals,omitempty"`
}

// Nearby returns approved upcoming events and active hospitals within the radius, closest first.
// Events without coordinates fall back to their hospital's position.
func (s *LocationService) Nearby(ctx context.Context, q NearbyQuery) (*NearbyResult, error) {
	if !utils.ValidCoordinates(q.Lat, q.Lng) {
		return nil, utils.BadRequest("lat must be within [-90, 90] and lng within [-180, 180]")
	}
	if q.RadiusKm == 0 {
		q.RadiusKm = DefaultRadiusKm
	}
	if q.RadiusKm < 0 || q.RadiusKm > MaxRadiusKm {
		return nil, utils.BadRequest(fmt.Sprintf("radius_km must be between 0 and %.0f", MaxRadiusKm))
	}
	if q.Type == "" {
		q.Type = NearbyAll
	}
	if q.Type != NearbyEvents && q.Type != NearbyHospitals && q.Type != NearbyAll {
		return nil, utils.BadRequest("type must be events, hospitals or all")
	}

	result := &NearbyResult{}
	if q.Type != NearbyHospitals {
		now := s.now()
		events, err := s.eventRepo.ListAll(ctx, repository.EventFilter{
			Status:        models.StatusApproved,
			UpcomingAfter: &now,
		})
		if err != nil {
			return nil, fmt.Errorf("list events: %w", err)
		}
		result.Events = make([]NearbyEvent, 0)
		for _, e := range events {
			lat, lng := e.Latitude, e.Longitude
			if (lat == nil || lng == nil) && e.Hospital != nil {
				lat, lng = e.Hospital.Latitude, e.Hospital.Longitude
			}
			if lat == nil || lng == nil {
				continue
			}
			d := utils.HaversineKm(q.Lat, q.Lng, *lat, *lng)
			if d <= q.RadiusKm {
				result.Events = append(result.Events, NearbyEvent{Event: e, DistanceKm: roundKm(d)})
			}
		}
		sort.SliceStable(result.Events, func(i, j int) bool {
			return result.Events[i].DistanceKm < result.Events[j].DistanceKm
		})
	}

	if q.Type != NearbyEvents {
		hospitals, err := s.hospitalRepo.GetHospitalsWithCoordinates(ctx)
		if err != nil {
			return nil, fmt.Errorf("list hospitals: %w", err)
		}
		result.Hospitals = make([]NearbyHospital, 0)
		for _, h := range hospitals {
			if h.Latitude == nil || h.Longitude == nil {
				continue
			}
			d := utils.HaversineKm(q.Lat, q.Lng, *h.Latitude, *h.Longitude)
			if d <= q.RadiusKm {
				result.Hospitals = append(result.Hospitals, NearbyHospital{Hospital: h, DistanceKm: roundKm(d)})
			}
		}
		sort.SliceStable(result.Hospitals, func(i, j int) bool {
			return result.Hospitals[i].DistanceKm < result.Hospitals[j].DistanceKm
		})
	}
	return result, nil
}

func roundKm(d float64) float64 {
	return float64(int64(d*100+0.5)) / 100
}
