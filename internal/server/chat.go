package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"

	"github.com/curatai/curatai/internal/agent"
	"github.com/curatai/curatai/internal/common/apperrors"
	"github.com/curatai/curatai/internal/common/httpx"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var validate = validator.New()

// HistoryMarker precedes the JSON trailer of a streamed reply.
const HistoryMarker = "__HISTORY__"

var ErrChatFailed apperrors.Error = apperrors.New("chat turn failed").SetStatusCode(http.StatusBadGateway)

// ChatReq carries one user message. A client may hold the history itself
// and send it back, or let the server keep it under ConversationID.
type ChatReq struct {
	Message        string          `json:"message" validate:"required"`
	ConversationID string          `json:"conversation_id,omitempty"`
	History        []agent.Message `json:"history,omitempty" validate:"dive"`
}

type ChatRsp struct {
	Response       string          `json:"response"`
	ConversationID string          `json:"conversation_id"`
	History        []agent.Message `json:"history"`
}

type historyTrailer struct {
	ConversationID string          `json:"conversation_id"`
	History        []agent.Message `json:"history"`
}

func (s *ChatServer) chat(r *http.Request) (*httpx.Response, error) {
	req := &ChatReq{}
	if err := httpx.GetRequestData(r, req); err != nil {
		return nil, err
	}
	res, id, err := s.runTurn(r, req)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response: &ChatRsp{
			Response:       res.Reply,
			ConversationID: id,
			History:        res.History,
		},
	}, nil
}

// chatStream writes the reply line by line as text, followed by the
// history trailer the client sends back on its next turn.
func (s *ChatServer) chatStream(w http.ResponseWriter, r *http.Request) {
	req := &ChatReq{}
	if err := httpx.GetRequestData(r, req); err != nil {
		sendErr(w, err)
		return
	}
	res, id, err := s.runTurn(r, req)
	if err != nil {
		sendErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	for _, line := range splitLines(res.Reply) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("client went away")
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
	trailer, err := json.Marshal(historyTrailer{ConversationID: id, History: res.History})
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("unable to marshal history")
		return
	}
	fmt.Fprintf(w, "\n%s%s\n", HistoryMarker, trailer)
	if flusher != nil {
		flusher.Flush()
	}
}

func (s *ChatServer) runTurn(r *http.Request, req *ChatReq) (*agent.Result, string, error) {
	req.Message = strings.TrimSpace(req.Message)
	if err := validate.Struct(req); err != nil {
		return nil, "", httpx.ErrInvalidRequest("message is required")
	}
	id, history := s.conversations.Open(req.ConversationID)
	if len(req.History) > 0 {
		history = req.History
	}
	ctx := r.Context()
	log.Ctx(ctx).Info().Str("conversation_id", id).Int("history", len(history)).Msg("chat turn")

	res, err := s.assistant.Driver.RunConversation(ctx, id, history, req.Message)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("conversation_id", id).Msg("chat turn failed")
		return nil, "", ErrChatFailed.MsgErr("chat turn failed: "+err.Error(), err)
	}
	s.conversations.Save(id, res.History)
	return res, id, nil
}

func splitLines(s string) []string {
	s = strings.TrimRight(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func sendErr(w http.ResponseWriter, err error) {
	switch e := err.(type) {
	case *httpx.Error:
		e.Send(w)
	case apperrors.Error:
		httpx.SendError(w, e)
	default:
		httpx.ErrApplicationError(err.Error()).Send(w)
	}
}
