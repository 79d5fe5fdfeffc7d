package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/rmqc/internal/rm/draft"
	"github.com/bitfantasy/rmqc/internal/rm/entity"
	"github.com/bitfantasy/rmqc/internal/rm/repository"
)

// ErrDraftNotFound 草稿不存在或已过期
var ErrDraftNotFound = errors.New("draft not found")

// DraftService 录入草稿服务
type DraftService struct {
	calls *repository.CallRepository
	store draft.Store
}

func NewDraftService(calls *repository.CallRepository, store draft.Store) *DraftService {
	return &DraftService{calls: calls, store: store}
}

// SaveDraftRequest 保存草稿请求
type SaveDraftRequest struct {
	Payload json.RawMessage `json:"payload" binding:"required"`
}

// Save 保存一个分区的草稿，已完成的报验单不再接受草稿
func (s *DraftService) Save(ctx context.Context, op Operator, callNo, section string, req *SaveDraftRequest) (*draft.Draft, error) {
	sec, err := s.check(ctx, callNo, section)
	if err != nil {
		return nil, err
	}
	if !json.Valid(req.Payload) {
		return nil, fmt.Errorf("%w: payload is not valid JSON", ErrInvalidInput)
	}
	d := draft.Draft{
		CallNo:  callNo,
		Section: sec,
		Payload: req.Payload,
		SavedBy: op.ID,
		SavedAt: time.Now(),
	}
	if err := s.store.Save(ctx, d); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	return &d, nil
}

// Load 读取草稿
func (s *DraftService) Load(ctx context.Context, callNo, section string) (*draft.Draft, error) {
	sec, err := draft.ParseSection(section)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	d, err := s.store.Load(ctx, callNo, sec)
	if err != nil {
		if errors.Is(err, draft.ErrNotFound) {
			return nil, ErrDraftNotFound
		}
		return nil, err
	}
	return d, nil
}

// Delete 丢弃草稿
func (s *DraftService) Delete(ctx context.Context, callNo, section string) error {
	sec, err := draft.ParseSection(section)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return s.store.Delete(ctx, callNo, sec)
}

func (s *DraftService) check(ctx context.Context, callNo, section string) (draft.Section, error) {
	sec, err := draft.ParseSection(section)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	call, err := s.calls.FindByCallNo(ctx, callNo)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrCallNotFound
		}
		return "", err
	}
	if call.Status == entity.CallStatusCompleted {
		return "", ErrCallCompleted
	}
	return sec, nil
}
