// Package wsrouter dispatches typed json messages to handlers, over a
// websocket connection or one request at a time.
package wsrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sharetube/roomtracks/pkg/validator"
)

var (
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrInvalidPayload     = errors.New("invalid payload")
)

// PayloadError is returned when a payload can not be decoded or fails
// validation.
type PayloadError struct {
	Errors []validator.ValidationError
	Err    error
}

func (e *PayloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid payload: %v", e.Err)
	}
	return "invalid payload"
}

func (e *PayloadError) Is(target error) bool {
	return target == ErrInvalidPayload
}

func (e *PayloadError) Unwrap() error {
	return e.Err
}

// HandlerFunc handles one decoded message and returns the response payload.
type HandlerFunc[T any] func(ctx context.Context, input T) (any, error)

type Middleware func(next HandlerFunc[json.RawMessage]) HandlerFunc[json.RawMessage]

// ErrorEncoder turns a handler error into a response payload.
type ErrorEncoder func(ctx context.Context, err error) any

type Conn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
}

type WSRouter struct {
	routes       map[string]HandlerFunc[json.RawMessage]
	middlewares  []Middleware
	validate     *validator.Validator
	errorEncoder ErrorEncoder
}

func New(validate *validator.Validator, errorEncoder ErrorEncoder) *WSRouter {
	if errorEncoder == nil {
		errorEncoder = func(_ context.Context, err error) any {
			return map[string]any{"ok": false, "error": err.Error()}
		}
	}

	return &WSRouter{
		routes:       make(map[string]HandlerFunc[json.RawMessage]),
		validate:     validate,
		errorEncoder: errorEncoder,
	}
}

// Use appends middlewares. They wrap every handler registered afterwards.
func (r *WSRouter) Use(mws ...Middleware) {
	r.middlewares = append(r.middlewares, mws...)
}

// Handle registers h for messageType. The payload is decoded into T and
// validated before h runs. An absent payload decodes to the zero T.
func Handle[T any](r *WSRouter, messageType string, h HandlerFunc[T]) {
	var handler HandlerFunc[json.RawMessage] = func(ctx context.Context, payload json.RawMessage) (any, error) {
		var input T
		if len(payload) > 0 && !bytes.Equal(payload, []byte("null")) {
			if err := json.Unmarshal(payload, &input); err != nil {
				return nil, &PayloadError{Err: err}
			}
		}

		if r.validate != nil {
			if errs, ok := r.validate.Validate(input); !ok {
				return nil, &PayloadError{Errors: errs}
			}
		}

		return h(ctx, input)
	}

	for i := len(r.middlewares) - 1; i >= 0; i-- {
		handler = r.middlewares[i](handler)
	}

	r.routes[messageType] = handler
}

// Dispatch runs the handler of msg and returns its response payload, or the
// encoded error.
func (r *WSRouter) Dispatch(ctx context.Context, msg Message) (any, error) {
	handler, ok := r.routes[msg.Type]
	if !ok {
		return r.errorEncoder(ctx, ErrUnknownMessageType), ErrUnknownMessageType
	}

	ctx = context.WithValue(ctx, messageTypeKey, msg.Type)
	resp, err := handler(ctx, msg.Payload)
	if err != nil {
		return r.errorEncoder(ctx, err), err
	}

	return resp, nil
}

// ServeConn reads messages from conn until it fails and answers every one of
// them with a message of the same type and id.
func (r *WSRouter) ServeConn(ctx context.Context, conn Conn) error {
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if !isDecodeError(err) {
				return err
			}

			if err := conn.WriteJSON(Message{
				Type:    "ERROR",
				Payload: mustMarshal(r.errorEncoder(ctx, &PayloadError{Err: err})),
			}); err != nil {
				return err
			}
			continue
		}

		resp, _ := r.Dispatch(ctx, msg)
		out, err := NewMessage(msg.Type, msg.ID, resp)
		if err != nil {
			return err
		}

		if err := conn.WriteJSON(out); err != nil {
			return err
		}
	}
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

func mustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
