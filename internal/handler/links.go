package handler

import (
	"net/http"

	"github.com/syncapps/chanbridge/internal/domain"
	"github.com/syncapps/chanbridge/internal/logger"
	"github.com/syncapps/chanbridge/internal/repository"
	syncpkg "github.com/syncapps/chanbridge/internal/sync"
)

// AdminHandlers serves the channel-link management API. Pairings are
// immutable: changing a pairing is a delete plus a create.
type AdminHandlers struct {
	links          repository.ChannelLinks
	teams          repository.SlackTeams
	directory      *syncpkg.DirectoryCache
	newSlackClient syncpkg.SlackClientFactory
}

func NewAdminHandlers(links repository.ChannelLinks, teams repository.SlackTeams, directory *syncpkg.DirectoryCache, newSlackClient syncpkg.SlackClientFactory) *AdminHandlers {
	return &AdminHandlers{
		links:          links,
		teams:          teams,
		directory:      directory,
		newSlackClient: newSlackClient,
	}
}

// LinkRequest is the channel pairing addressed by create and delete.
type LinkRequest struct {
	SlackTeamID    string `json:"slack_team_id" validate:"required,identifier"`
	SlackChannelID string `json:"slack_channel_id" validate:"required,identifier"`
	SpaceClientID  string `json:"space_client_id" validate:"required,identifier"`
	SpaceChannelID string `json:"space_channel_id" validate:"required,identifier"`
}

// HandleListChannels returns the team's channel directory
// @Summary List Slack channels
// @Description Returns the cached channel directory for a connected Slack team
// @Tags admin
// @Produce json
// @Param team_id query string true "Slack team ID"
// @Success 200 {object} DataResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/channels [get]
func (h *AdminHandlers) HandleListChannels(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	teamID, ok := GetQueryParam(r, w, "team_id")
	if !ok {
		return
	}

	team, err := h.teams.GetByID(r.Context(), teamID)
	if err != nil {
		status, msg := mapServiceErrorToUserMessage(err)
		respondError(w, status, msg)
		return
	}
	if team.TokenInvalid {
		respondError(w, http.StatusConflict, ErrMsgTeamNotConnected)
		return
	}

	api, err := h.newSlackClient(r.Context(), team)
	if err != nil {
		log.Error("Failed to create slack client", "error", err)
		respondError(w, http.StatusInternalServerError, ErrMsgListChannelsError)
		return
	}

	channels, err := h.directory.Channels(r.Context(), teamID, api)
	if err != nil {
		log.Error("Failed to list channels", "team_id", teamID, "error", err)
		respondError(w, http.StatusInternalServerError, ErrMsgListChannelsError)
		return
	}

	respondJSON(w, http.StatusOK, DataResponse{Data: channels})
}

// HandleListLinks returns the team's configured channel pairings
// @Summary List channel links
// @Description Returns every channel pairing configured for a Slack team
// @Tags admin
// @Produce json
// @Param team_id query string true "Slack team ID"
// @Success 200 {object} DataResponse
// @Router /api/v1/links [get]
func (h *AdminHandlers) HandleListLinks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	teamID, ok := GetQueryParam(r, w, "team_id")
	if !ok {
		return
	}

	links, err := h.links.ListBySlackTeam(r.Context(), teamID)
	if err != nil {
		log.Error("Failed to list channel links", "team_id", teamID, "error", err)
		respondError(w, http.StatusInternalServerError, ErrMsgListLinksError)
		return
	}
	if links == nil {
		links = []domain.ChannelLink{}
	}

	respondJSON(w, http.StatusOK, DataResponse{Data: links})
}

// HandleCreateLink starts syncing a channel pair
// @Summary Create channel link
// @Description Pairs a Slack channel with a Space channel; messages sync both ways from this point
// @Tags admin
// @Accept json
// @Produce json
// @Param request body LinkRequest true "Channel pairing"
// @Success 200 {object} SuccessResponse "Pairing already existed"
// @Success 201 {object} SuccessResponse
// @Failure 400 {object} ValidationErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/links [post]
func (h *AdminHandlers) HandleCreateLink(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req LinkRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Create link"); err != nil {
		return
	}

	// The team must be connected before channels can be paired.
	if _, err := h.teams.GetByID(r.Context(), req.SlackTeamID); err != nil {
		status, msg := mapServiceErrorToUserMessage(err)
		respondError(w, status, msg)
		return
	}

	created, err := h.links.AddIfAbsent(r.Context(), domain.ChannelLink{
		SlackTeamID:    req.SlackTeamID,
		SlackChannelID: req.SlackChannelID,
		SpaceClientID:  req.SpaceClientID,
		SpaceChannelID: req.SpaceChannelID,
	})
	if err != nil {
		log.Error("Failed to create channel link", "team_id", req.SlackTeamID, "error", err)
		respondError(w, http.StatusInternalServerError, ErrMsgCreateLinkError)
		return
	}

	if !created {
		respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgLinkAlreadyExists})
		return
	}

	log.Info(LogMsgLinkCreated,
		"team_id", req.SlackTeamID,
		"slack_channel_id", req.SlackChannelID,
		"space_channel_id", req.SpaceChannelID)
	respondJSON(w, http.StatusCreated, SuccessResponse{Message: MsgLinkCreatedSuccess})
}

// HandleDeleteLink stops syncing a channel pair
// @Summary Remove channel link
// @Description Unpairs the channels; already-synced messages are left in place
// @Tags admin
// @Accept json
// @Produce json
// @Param request body LinkRequest true "Channel pairing"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ValidationErrorResponse
// @Router /api/v1/links [delete]
func (h *AdminHandlers) HandleDeleteLink(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req LinkRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Remove link"); err != nil {
		return
	}

	err := h.links.Remove(r.Context(), domain.ChannelLink{
		SlackTeamID:    req.SlackTeamID,
		SlackChannelID: req.SlackChannelID,
		SpaceClientID:  req.SpaceClientID,
		SpaceChannelID: req.SpaceChannelID,
	})
	if err != nil {
		log.Error("Failed to remove channel link", "team_id", req.SlackTeamID, "error", err)
		respondError(w, http.StatusInternalServerError, ErrMsgRemoveLinkError)
		return
	}

	log.Info(LogMsgLinkRemoved,
		"team_id", req.SlackTeamID,
		"slack_channel_id", req.SlackChannelID,
		"space_channel_id", req.SpaceChannelID)
	respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgLinkRemovedSuccess})
}

// HandleClearDirectory drops the cached channel directory
// @Summary Clear channel directory cache
// @Description Forces the next channel listing to refetch from Slack. Clears one team when team_id is given, everything otherwise.
// @Tags admin
// @Produce json
// @Param team_id query string false "Slack team ID"
// @Success 200 {object} SuccessResponse
// @Router /api/v1/admin/cache/clear [post]
func (h *AdminHandlers) HandleClearDirectory(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	teamID := r.URL.Query().Get("team_id")
	var err error
	if teamID == "" {
		err = h.directory.InvalidateAll(r.Context())
	} else {
		err = h.directory.Invalidate(r.Context(), teamID)
	}
	if err != nil {
		log.Error("Failed to clear channel directory", "team_id", teamID, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to clear channel directory")
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgDirectoryCacheCleared})
}
