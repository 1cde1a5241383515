package controller

import (
	"github.com/sharetube/roomtracks/pkg/wsrouter"
)

const (
	msgGetTracks          = "GET_TRACKS"
	msgManualAddTrack     = "MANUAL_ADD_TRACK"
	msgRemoveTrack        = "REMOVE_TRACK"
	msgClearTracks        = "CLEAR_TRACKS"
	msgGetRooms           = "GET_ROOMS"
	msgSetActiveRoom      = "SET_ACTIVE_ROOM"
	msgNowPlaying         = "NOW_PLAYING"
	msgPlaylistCandidates = "PLAYLIST_CANDIDATES"
	msgGetSettings        = "GET_SETTINGS"
	msgSetSettings        = "SET_SETTINGS"
	msgResetSettings      = "RESET_SETTINGS"
	msgLinkFromIframe     = "YTLINK_FROM_IFRAME"
	msgGetLink            = "GET_YTLINK"
	msgCreatePlaylist     = "CREATE_YT_PLAYLIST"
	msgAddAllToPlaylist   = "ADD_ALL_TO_PLAYLIST"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New(c.validate, c.encodeError)
	mux.Use(c.wsRequestIdMw(), c.loggerWSMw())

	// tracks
	wsrouter.Handle(mux, msgGetTracks, c.handleGetTracks)
	wsrouter.Handle(mux, msgManualAddTrack, c.handleManualAddTrack)
	wsrouter.Handle(mux, msgRemoveTrack, c.handleRemoveTrack)
	wsrouter.Handle(mux, msgClearTracks, c.handleClearTracks)
	wsrouter.Handle(mux, msgNowPlaying, c.handleNowPlaying)

	// rooms
	wsrouter.Handle(mux, msgGetRooms, c.handleGetRooms)
	wsrouter.Handle(mux, msgSetActiveRoom, c.handleSetActiveRoom)
	wsrouter.Handle(mux, msgPlaylistCandidates, c.handlePlaylistCandidates)

	// settings
	wsrouter.Handle(mux, msgGetSettings, c.handleGetSettings)
	wsrouter.Handle(mux, msgSetSettings, c.handleSetSettings)
	wsrouter.Handle(mux, msgResetSettings, c.handleResetSettings)

	// link relay
	wsrouter.Handle(mux, msgLinkFromIframe, c.handleLinkFromIframe)
	wsrouter.Handle(mux, msgGetLink, c.handleGetLink)

	// export
	wsrouter.Handle(mux, msgCreatePlaylist, c.handleCreatePlaylist)
	wsrouter.Handle(mux, msgAddAllToPlaylist, c.handleAddAllToPlaylist)

	return mux
}
