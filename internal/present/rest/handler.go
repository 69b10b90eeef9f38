package rest

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/vessel-net/vessel"
	"github.com/vessel-net/vessel/internal/domain"
	"github.com/vessel-net/vessel/internal/present/rest/presenter"
	"github.com/vessel-net/vessel/internal/service"
	"github.com/vessel-net/vessel/internal/usecase"
)

type Handler struct {
	config      domain.Config
	publication *usecase.PublicationUsecase
	comment     *usecase.CommentUsecase
	connection  *usecase.ConnectionUsecase
	node        *usecase.NodeUsecase
	auth        *service.AuthService
	signal      *service.SignalService
}

func NewHandler(
	config domain.Config,
	publication *usecase.PublicationUsecase,
	comment *usecase.CommentUsecase,
	connection *usecase.ConnectionUsecase,
	node *usecase.NodeUsecase,
	auth *service.AuthService,
	signal *service.SignalService,
) *Handler {
	return &Handler{
		config:      config,
		publication: publication,
		comment:     comment,
		connection:  connection,
		node:        node,
		auth:        auth,
		signal:      signal,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/.well-known/vessel", h.handleWellKnown)
	e.GET("/resource/:hash", h.handleResource)
	e.GET("/verify", h.handleVerify)
	e.POST("/api/v1/publications", h.handlePublish)
	e.GET("/api/v1/publications", h.handleFeed)
	e.GET("/api/v1/publications/:id", h.handleGetPublication)
	e.PUT("/api/v1/publications/:id", h.handleEditPublication)
	e.POST("/api/v1/publications/:id/signature", h.handleSignPublication)
	e.POST("/api/v1/publications/:id/comments", h.handleSubmitComment)
	e.GET("/api/v1/publications/:id/comments", h.handleListComments)
	e.DELETE("/api/v1/comments/:id", h.handleDeleteComment)
	e.GET("/api/v1/session", h.handleSessionStatus)
	e.POST("/api/v1/session", h.handleCreateSession)
	e.DELETE("/api/v1/session", h.handleDestroySession)
	e.POST("/api/v1/connections", h.handleFollow)
	e.DELETE("/api/v1/connections/:address", h.handleUnfollow)
	e.GET("/api/v1/connections/:address/following", h.handleFollowing)
	e.GET("/api/v1/connections/:address/followers", h.handleFollowers)
	e.GET("/api/v1/nodes/:address", h.handleGetNode)
	e.PUT("/api/v1/profile", h.handleUpdateProfile)
	e.GET("/realtime", h.handleRealtime)
}

// decodeSignature accepts the wire form of a signature, hex with or
// without the 0x prefix.
func decodeSignature(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}

// respondError maps domain errors onto the response vocabulary. Any
// verification failure collapses into the uniform rejection.
func respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return presenter.NotFound(c, "resource not found")
	case errors.Is(err, domain.ErrVerification):
		return presenter.VerificationFailed(c)
	case errors.Is(err, domain.ErrImmutable):
		return presenter.Conflict(c, "signed content is immutable")
	case errors.Is(err, domain.ErrInvalidInput):
		return presenter.BadRequestMessage(c, "invalid input")
	default:
		return presenter.InternalError(c, err)
	}
}

func (h *Handler) handleWellKnown(c echo.Context) error {
	wellknown := vessel.WellKnownVessel{
		Version:     "1.0",
		Address:     h.config.Address,
		URL:         h.config.URL,
		Title:       h.config.Title,
		Description: h.config.Description,
		Endpoints: map[string]string{
			"net.vessel.resource":     "/resource/{hash}",
			"net.vessel.publications": "/api/v1/publications",
			"net.vessel.comments":     "/api/v1/publications/{id}/comments",
			"net.vessel.verify":       "/verify",
			"net.vessel.connections":  "/api/v1/connections",
			"net.vessel.realtime":     "/realtime",
		},
	}
	return presenter.OK(c, wellknown)
}

func (h *Handler) handleResource(c echo.Context) error {
	ctx := c.Request().Context()

	hash := c.Param("hash")
	pub, err := h.publication.Resolve(ctx, hash)
	if err != nil {
		return respondError(c, err)
	}
	return presenter.OK(c, pub)
}

type publishRequest struct {
	Type     string   `json:"type"`
	Body     string   `json:"body,omitempty"`
	Filename string   `json:"filename,omitempty"`
	MimeType string   `json:"mimeType,omitempty"`
	Bytes    []byte   `json:"bytes,omitempty"`
	Author   string   `json:"author"`
	Tags     []string `json:"tags,omitempty"`

	// Signature and createdAt travel together; a signature without its
	// attested creation time is unverifiable.
	Signature string `json:"signature,omitempty"`
	CreatedAt int64  `json:"createdAt,omitempty"`
}

func (h *Handler) handlePublish(c echo.Context) error {
	ctx := c.Request().Context()

	var req publishRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	signature, err := decodeSignature(req.Signature)
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid signature encoding")
	}

	input := usecase.PublishInput{
		Type:      domain.ContentType(req.Type),
		Body:      req.Body,
		Filename:  req.Filename,
		MimeType:  req.MimeType,
		Size:      int64(len(req.Bytes)),
		Bytes:     req.Bytes,
		Author:    req.Author,
		Tags:      req.Tags,
		Signature: signature,
	}
	if req.CreatedAt != 0 {
		input.CreatedAt = time.Unix(req.CreatedAt, 0).UTC()
	}

	pub, err := h.publication.Publish(ctx, input)
	if err != nil {
		return respondError(c, err)
	}
	return presenter.OK(c, pub)
}

func (h *Handler) handleFeed(c echo.Context) error {
	ctx := c.Request().Context()

	var until time.Time
	untilStr := c.QueryParam("until")
	if untilStr != "" {
		untilInt, err := strconv.ParseInt(untilStr, 10, 64)
		if err != nil {
			return presenter.BadRequestMessage(c, "invalid until parameter")
		}
		until = time.Unix(untilInt, 0).UTC()
	}

	limit := 20
	limitStr := c.QueryParam("limit")
	if limitStr != "" {
		limitInt, err := strconv.Atoi(limitStr)
		if err != nil {
			return presenter.BadRequestMessage(c, "invalid limit parameter")
		}
		limit = limitInt
	}

	pubs, err := h.publication.Feed(ctx, until, limit)
	if err != nil {
		return respondError(c, err)
	}
	return presenter.OK(c, pubs)
}

func paramID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func (h *Handler) handleGetPublication(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := paramID(c)
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid id")
	}

	pub, err := h.publication.Get(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return presenter.OK(c, pub)
}

type editRequest struct {
	Body string `json:"body"`
}

func (h *Handler) handleEditPublication(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := paramID(c)
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid id")
	}

	var req editRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	pub, err := h.publication.Edit(ctx, id, req.Body)
	if err != nil {
		return respondError(c, err)
	}
	return presenter.OK(c, pub)
}

type signRequest struct {
	Signature string `json:"signature"`
}

func (h *Handler) handleSignPublication(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := paramID(c)
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid id")
	}

	var req signRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	signature, err := decodeSignature(req.Signature)
	if err != nil || len(signature) == 0 {
		return presenter.BadRequestMessage(c, "invalid signature encoding")
	}

	pub, err := h.publication.Sign(ctx, id, signature)
	if err != nil {
		return respondError(c, err)
	}
	return presenter.OK(c, pub)
}

type commentRequest struct {
	Body       string `json:"body"`
	AuthorName string `json:"authorName"`
	AuthorID   string `json:"authorId"`
	AuthType   string `json:"authType"`
	Signature  string `json:"signature,omitempty"`
	Timestamp  int64  `json:"timestamp,omitempty"`
}

func (h *Handler) handleSubmitComment(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := paramID(c)
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid id")
	}

	var req commentRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	var auth domain.CommentAuth
	switch domain.CommentAuthType(req.AuthType) {
	case domain.AuthTypeEthereum:
		signature, err := decodeSignature(req.Signature)
		if err != nil || len(signature) == 0 {
			return presenter.BadRequestMessage(c, "invalid signature encoding")
		}
		auth = domain.AuthEthereum{Signature: signature}
	case domain.AuthTypeEmail:
		auth = domain.AuthEmail{}
	default:
		return presenter.BadRequestMessage(c, "unknown auth type")
	}

	comment, err := h.comment.Submit(ctx, usecase.SubmitCommentInput{
		PublicationID: id,
		Body:          req.Body,
		AuthorName:    req.AuthorName,
		AuthorID:      req.AuthorID,
		Auth:          auth,
		Timestamp:     time.Unix(req.Timestamp, 0).UTC(),
	})
	if err != nil {
		// A created-but-unmailed comment still surfaces as an error so
		// the client can offer a retry.
		return respondError(c, err)
	}
	return presenter.OK(c, comment)
}

func (h *Handler) handleListComments(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := paramID(c)
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid id")
	}

	comments, err := h.comment.ListConfirmed(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	count, err := h.comment.CountConfirmed(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return presenter.OK(c, echo.Map{
		"comments": comments,
		"count":    count,
	})
}

type deleteCommentRequest struct {
	Requester string `json:"requester"`
	Signature string `json:"signature"`
}

func (h *Handler) handleDeleteComment(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := paramID(c)
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid id")
	}

	var req deleteCommentRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	signature, err := decodeSignature(req.Signature)
	if err != nil || len(signature) == 0 {
		return presenter.BadRequestMessage(c, "invalid signature encoding")
	}

	if err := h.comment.DeleteSigned(ctx, id, req.Requester, signature); err != nil {
		return respondError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

// handleVerify is the landing endpoint for both links in the
// confirmation mail. The same token that redeems the comment is
// exchanged for a session cookie so the commenter can manage the
// comment afterwards without a second round trip.
func (h *Handler) handleVerify(c echo.Context) error {
	ctx := c.Request().Context()

	tokenString := c.QueryParam("token")
	if tokenString == "" {
		return presenter.VerificationFailed(c)
	}

	comment, err := h.comment.Redeem(ctx, tokenString)
	if err != nil {
		return respondError(c, err)
	}

	if session, ttl, err := h.auth.SessionFromToken(ctx, tokenString); err == nil {
		h.setSessionCookie(c, session, ttl)
	}

	return presenter.OK(c, echo.Map{
		"status":  "ok",
		"comment": comment,
	})
}

func (h *Handler) setSessionCookie(c echo.Context, value string, ttl time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     domain.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

// handleSessionStatus only ever reports boolean presence. Neither the
// token value nor the session subject leaves the cookie boundary.
func (h *Handler) handleSessionStatus(c echo.Context) error {
	subject, ok := c.Request().Context().Value(domain.SessionSubjectCtxKey).(string)
	return presenter.OK(c, echo.Map{
		"active": ok && subject != "",
	})
}

type sessionRequest struct {
	Token string `json:"token"`
}

func (h *Handler) handleCreateSession(c echo.Context) error {
	ctx := c.Request().Context()

	var req sessionRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	session, ttl, err := h.auth.SessionFromToken(ctx, req.Token)
	if err != nil {
		return respondError(c, err)
	}
	h.setSessionCookie(c, session, ttl)
	return presenter.OK(c, echo.Map{"active": true})
}

func (h *Handler) handleDestroySession(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     domain.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	return presenter.OK(c, echo.Map{"active": false})
}

type connectionRequest struct {
	Follower    string `json:"follower"`
	Followee    string `json:"followee"`
	FollowerURL string `json:"followerUrl"`
	FolloweeURL string `json:"followeeUrl"`
	Timestamp   int64  `json:"timestamp"`
	Signature   string `json:"signature"`
}

func (h *Handler) handleFollow(c echo.Context) error {
	ctx := c.Request().Context()

	var req connectionRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	signature, err := decodeSignature(req.Signature)
	if err != nil || len(signature) == 0 {
		return presenter.BadRequestMessage(c, "invalid signature encoding")
	}

	err = h.connection.Follow(ctx, usecase.FollowInput{
		Follower:    req.Follower,
		Followee:    req.Followee,
		FollowerURL: req.FollowerURL,
		FolloweeURL: req.FolloweeURL,
		Timestamp:   time.Unix(req.Timestamp, 0).UTC(),
		Signature:   signature,
	})
	if err != nil {
		return respondError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleUnfollow(c echo.Context) error {
	ctx := c.Request().Context()

	var req connectionRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	signature, err := decodeSignature(req.Signature)
	if err != nil || len(signature) == 0 {
		return presenter.BadRequestMessage(c, "invalid signature encoding")
	}

	err = h.connection.Unfollow(ctx, usecase.UnfollowInput{
		Follower:  req.Follower,
		Followee:  c.Param("address"),
		Timestamp: time.Unix(req.Timestamp, 0).UTC(),
		Signature: signature,
	})
	if err != nil {
		return respondError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleFollowing(c echo.Context) error {
	ctx := c.Request().Context()
	conns, err := h.connection.Following(ctx, c.Param("address"))
	if err != nil {
		return respondError(c, err)
	}
	return presenter.OK(c, conns)
}

func (h *Handler) handleFollowers(c echo.Context) error {
	ctx := c.Request().Context()
	conns, err := h.connection.Followers(ctx, c.Param("address"))
	if err != nil {
		return respondError(c, err)
	}
	return presenter.OK(c, conns)
}

func (h *Handler) handleGetNode(c echo.Context) error {
	ctx := c.Request().Context()

	hint := c.QueryParam("hint")
	node, err := h.node.Get(ctx, c.Param("address"), hint)
	if err != nil {
		return respondError(c, err)
	}
	return presenter.OK(c, node)
}

type profileRequest struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Timestamp   int64  `json:"timestamp"`
	Signature   string `json:"signature"`
}

func (h *Handler) handleUpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()

	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	signature, err := decodeSignature(req.Signature)
	if err != nil || len(signature) == 0 {
		return presenter.BadRequestMessage(c, "invalid signature encoding")
	}

	node, err := h.node.UpdateProfile(ctx, usecase.ProfileUpdateInput{
		Address:     h.config.Address,
		URL:         req.URL,
		Title:       req.Title,
		Description: req.Description,
		Timestamp:   time.Unix(req.Timestamp, 0).UTC(),
		Signature:   signature,
	})
	if err != nil {
		return respondError(c, err)
	}
	return presenter.OK(c, node)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Request struct {
	Type     string   `json:"type"`
	Prefixes []string `json:"prefixes"`
}

func (h *Handler) handleRealtime(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer func() {
		ws.Close()
	}()

	ctx := c.Request().Context()

	// The relay owns output and closes it on exit; the socket reader
	// below owns input the same way.
	input := make(chan []string)
	output := make(chan vessel.Event)

	go h.signal.Realtime(ctx, input, output)

	quit := make(chan struct{}, 1)

	go func() {
		defer close(input)
		for {
			var req Request
			err := ws.ReadJSON(&req)
			if err != nil {

				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.ErrorContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}

				quit <- struct{}{}
				break
			}

			switch req.Type {
			case "listen":
				select {
				case input <- req.Prefixes:
				case <-ctx.Done():
					return
				}
				slog.DebugContext(
					ctx, fmt.Sprintf("Socket subscribe: %s", req.Prefixes),
					slog.String("module", "socket"),
				)
			case "h": // heartbeat
				// do nothing
			default:
				slog.InfoContext(
					ctx, "Unknown request type",
					slog.String("type", req.Type),
					slog.String("module", "socket"),
				)
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case items, ok := <-output:
			if !ok {
				return nil
			}
			err := ws.WriteJSON(items)
			if err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
