package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/sharetube/roomtracks/internal/domain"
	"github.com/sharetube/roomtracks/internal/nowplaying"
	"github.com/sharetube/roomtracks/internal/repository/connection/inmemory"
	"github.com/sharetube/roomtracks/internal/service/export"
	"github.com/sharetube/roomtracks/internal/service/room"
	"github.com/sharetube/roomtracks/pkg/validator"
	"github.com/sharetube/roomtracks/pkg/wsrouter"
)

type iRoomService interface {
	// tracks
	GetTracks(context.Context, string) (domain.TrackList, error)
	RemoveTrack(context.Context, *room.RemoveTrackParams) (domain.TrackList, error)
	ClearTracks(context.Context, string) error
	RecordNowPlaying(context.Context, *room.NowPlayingParams) (room.NowPlayingResponse, error)
	ManualAddTrack(context.Context, *room.ManualAddTrackParams) (room.ManualAddTrackResponse, error)
	// rooms
	GetRooms(context.Context) (room.GetRoomsResponse, error)
	SetActiveRoom(context.Context, *room.SetActiveRoomParams) (room.SetActiveRoomResponse, error)
	ResolveRoomID(context.Context, string) (string, error)
	RoomDisplayName(context.Context, string, string) (string, error)
	ReportPlaylistCandidates(context.Context, string, string) error
	// settings
	GetSettings(context.Context) (domain.Settings, error)
	SetSettings(context.Context, domain.SettingsPatch) (domain.Settings, error)
	ResetSettings(context.Context) (domain.Settings, error)
}

type iExportGateway interface {
	CreatePlaylist(context.Context, string) (string, error)
	AddAll(context.Context, string, string) (export.AddAllResult, error)
}

type iRelay interface {
	Track(string)
	Query(string) (domain.Link, bool)
	Recover(context.Context, string) (domain.Link, bool)
	Forget(context.Context, string)
}

type iReconciler interface {
	Attach(string, nowplaying.Source)
	Observe(string, nowplaying.Candidate) (nowplaying.Snapshot, bool)
	OnContextDestroyed(string)
}

type iConnectionRepo interface {
	Add(*websocket.Conn, string, string) (*inmemory.Conn, error)
	Remove(*inmemory.Conn) (int, error)
}

type Params struct {
	RoomService iRoomService
	// Export is nil when no playlist backend is configured.
	Export      iExportGateway
	Relay       iRelay
	Reconciler  iReconciler
	Connections iConnectionRepo
	Logger      *slog.Logger
}

type controller struct {
	roomService iRoomService
	export      iExportGateway
	relay       iRelay
	reconciler  iReconciler
	connections iConnectionRepo
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	wsmux       *wsrouter.WSRouter
	logger      *slog.Logger
}

func NewController(params *Params) *controller {
	c := &controller{
		roomService: params.RoomService,
		export:      params.Export,
		relay:       params.Relay,
		reconciler:  params.Reconciler,
		connections: params.Connections,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		validate: validator.NewValidator(),
		logger:   params.Logger,
	}
	c.wsmux = c.getWSRouter()

	return c
}
