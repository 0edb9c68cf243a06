package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jmcleod/examflow/internal/validate"
)

const roomsPath = "/rooms/"

// RoomService covers /rooms/ endpoints.
type RoomService struct {
	d Doer
}

// List returns rooms matching f.
func (s *RoomService) List(ctx context.Context, f RoomFilter) ([]Room, error) {
	q := query{}
	q.setInt("building", f.Building)
	q.setBool("is_available", f.IsAvailable)
	q.setInt("min_capacity", int64(f.MinCapacity))

	var out List[Room]
	if err := s.d.Do(ctx, http.MethodGet, roomsPath, url.Values(q), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *RoomService) Create(ctx context.Context, in RoomInput) (*Room, error) {
	var out Room
	if err := s.d.Do(ctx, http.MethodPost, roomsPath, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *RoomService) Update(ctx context.Context, id int64, in RoomInput) (*Room, error) {
	var out Room
	if err := s.d.Do(ctx, http.MethodPut, itemPath(roomsPath, id, ""), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *RoomService) Delete(ctx context.Context, id int64) error {
	return s.d.Do(ctx, http.MethodDelete, itemPath(roomsPath, id, ""), nil, nil, nil)
}

// CheckAvailability lists rooms with no overlapping exam in the slot.
func (s *RoomService) CheckAvailability(ctx context.Context, req AvailabilityRequest) (*Availability, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	var out Availability
	if err := s.d.Do(ctx, http.MethodPost, roomsPath+"check-availability/", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Schedule returns the room and its exams within r.
func (s *RoomService) Schedule(ctx context.Context, id int64, r DateRange) (*RoomSchedule, error) {
	q := query{}
	q.set("date_from", r.From)
	q.set("date_to", r.To)

	var out RoomSchedule
	if err := s.d.Do(ctx, http.MethodGet, itemPath(roomsPath, id, "schedule/"), url.Values(q), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *RoomService) Buildings(ctx context.Context) ([]Building, error) {
	var out List[Building]
	if err := s.d.Do(ctx, http.MethodGet, roomsPath+"buildings/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *RoomService) CreateBuilding(ctx context.Context, in BuildingInput) (*Building, error) {
	var out Building
	if err := s.d.Do(ctx, http.MethodPost, roomsPath+"buildings/", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
