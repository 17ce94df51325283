package monitor

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/fall-alarm/internal/domain/fall"
	"github.com/oshokin/fall-alarm/internal/logger"
)

// MaxListLimit caps the number of events returned by ListIncidents.
const MaxListLimit = 500

// Engine abstracts the detection engine operations the transport depends on.
type Engine interface {
	Snapshot() fall.Snapshot
	Cancel(ctx context.Context, source string) bool
}

// Journal abstracts the incident history the transport depends on.
type Journal interface {
	List(ctx context.Context, limit int) ([]fall.IncidentEvent, error)
}

// Server implements MonitorServer.
type Server struct {
	// engine provides the live detection state.
	engine Engine
	// journal provides incident history, may be nil.
	journal Journal
	// cancelSource is recorded for remote cancellations.
	cancelSource string
}

// NewServer wires the engine and the journal into a gRPC handler.
// cancelSource labels cancellations made through this server.
func NewServer(engine Engine, journal Journal, cancelSource string) *Server {
	return &Server{
		engine:       engine,
		journal:      journal,
		cancelSource: cancelSource,
	}
}

// GetStatus returns the current engine state.
func (s *Server) GetStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	response, err := SnapshotToProto(s.engine.Snapshot())
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to encode status")
	}

	return response, nil
}

// CancelAlert resolves a pending alert. It is not an error when nothing is pending.
func (s *Server) CancelAlert(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	source := s.cancelSource
	if actor := ActorFromProto(req); actor != nil {
		source += " by " + actor.String()
	}

	cancelled := s.engine.Cancel(ctx, source)
	if !cancelled {
		logger.InfoKV(ctx, "Remote cancel ignored, no alert pending", "source", source)
	}

	return CancelResultToProto(cancelled, s.engine.Snapshot().Phase), nil
}

// ListIncidents returns recent journal events, newest first.
func (s *Server) ListIncidents(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.journal == nil {
		return nil, status.Error(codes.Unavailable, "incident journal is disabled")
	}

	limit, err := LimitFromProto(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	limit = min(limit, MaxListLimit)

	events, err := s.journal.List(ctx, limit)
	if err != nil {
		logger.ErrorKV(ctx, "Failed to list incidents", "error", err)

		return nil, status.Error(codes.Internal, "unable to read incident journal")
	}

	response, err := EventsToProto(events)
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to encode incidents")
	}

	return response, nil
}
