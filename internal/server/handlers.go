package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/shouni/go-ehon-kit/pkg/domain"
	"github.com/shouni/go-ehon-kit/pkg/prompts"
	"github.com/shouni/go-ehon-kit/pkg/runner"
	"github.com/shouni/go-ehon-kit/pkg/workflow"
)

const (
	// maxUploadBytes はヒーロー写真を含むフォームの上限です。
	maxUploadBytes = 20 << 20
	heroFormField  = "heroImage"
)

// HeroLoader はヒーロー画像の参照先を読み込みます。
type HeroLoader interface {
	Load(ctx context.Context, location string) (*domain.ReferenceImage, error)
}

// Handler は絵本 API のハンドラーです。
type Handler struct {
	workflow workflow.Workflow
	heroes   HeroLoader
}

// NewHandler は Handler を生成します。
func NewHandler(wf workflow.Workflow, heroes HeroLoader) (*Handler, error) {
	if wf == nil {
		return nil, fmt.Errorf("Workflow は必須です")
	}
	return &Handler{workflow: wf, heroes: heroes}, nil
}

type errorResponse struct {
	Error      string `json:"error"`
	AIResponse string `json:"ai_response,omitempty"`
}

// CreateBook は絵本 1 冊を生成します。
// フォーム項目: name, honorific, storyId, customStory, heroImage (ファイル) または heroUrl
// クエリ: textOnly=1 で本文のみ、engine=preview|gemini|vertex で主エンジンを上書き
func (h *Handler) CreateBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := h.parseBookRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.workflow.GenerateBook(ctx, req)
	if err != nil {
		var storyErr *runner.StoryError
		if errors.As(err, &storyErr) {
			slog.ErrorContext(ctx, "本文の解析に失敗しました", "attempts", storyErr.Attempts, "error", storyErr.Err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{
				Error:      "AIレスポンスの解析に失敗しました。JSON形式でデータが返ってきませんでした。",
				AIResponse: storyErr.Raw,
			})
			return
		}
		if ctx.Err() != nil {
			slog.WarnContext(ctx, "リクエストが中断されました", "error", err)
			return
		}
		slog.ErrorContext(ctx, "絵本の生成に失敗しました", "error", err)
		writeError(w, http.StatusInternalServerError, "内部サーバーエラーが発生しました。")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// UpdatePage は単一ページを再生成します。全プロバイダーが失敗した場合も engine=fallback のページを返すのだ。
func (h *Handler) UpdatePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req domain.PageRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "リクエストボディの JSON が不正です")
		return
	}
	if engine := r.URL.Query().Get("engine"); engine != "" {
		req.Engine = engine
	}

	res, err := h.workflow.GeneratePage(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			slog.WarnContext(ctx, "リクエストが中断されました", "error", err)
			return
		}
		slog.ErrorContext(ctx, "ページの生成に失敗しました", "page", req.Index, "error", err)
		writeError(w, http.StatusInternalServerError, "内部エラー")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Healthz は死活監視用です。
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) parseBookRequest(w http.ResponseWriter, r *http.Request) (domain.BookRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return domain.BookRequest{}, fmt.Errorf("フォームの解析に失敗しました")
		}
	}

	q := r.URL.Query()
	req := domain.BookRequest{
		ChildName:   strings.TrimSpace(r.FormValue("name")),
		Honorific:   domain.ParseHonorific(r.FormValue("honorific")),
		StoryID:     strings.TrimSpace(r.FormValue("storyId")),
		CustomStory: strings.TrimSpace(r.FormValue("customStory")),
		Engine:      q.Get("engine"),
		TextOnly:    isTruthy(q.Get("textOnly")),
	}
	if req.ChildName == "" || req.StoryID == "" {
		return req, fmt.Errorf("必須項目が入力されていません。")
	}
	if _, err := prompts.LookupStory(req.StoryID, req.CustomStory); err != nil {
		if req.StoryID == prompts.StoryIDCustom {
			return req, fmt.Errorf("オリジナルストーリーの内容を入力してください。")
		}
		return req, fmt.Errorf("選択されたストーリーはサポートされていません。")
	}

	hero, err := h.loadHero(r)
	if err != nil {
		return req, err
	}
	req.Hero = hero
	return req, nil
}

func (h *Handler) loadHero(r *http.Request) (*domain.ReferenceImage, error) {
	if file, header, err := r.FormFile(heroFormField); err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, fmt.Errorf("ヒーロー画像の読み込みに失敗しました")
		}
		if len(data) == 0 {
			return nil, nil
		}
		mimeType := header.Header.Get("Content-Type")
		if !strings.HasPrefix(mimeType, "image/") {
			mimeType = http.DetectContentType(data)
		}
		return &domain.ReferenceImage{Data: data, MimeType: mimeType}, nil
	}

	location := strings.TrimSpace(r.FormValue("heroUrl"))
	if location == "" || h.heroes == nil {
		return nil, nil
	}
	if err := checkHeroLocation(location); err != nil {
		slog.WarnContext(r.Context(), "ヒーロー画像の URL を拒否しました", "error", err)
		return nil, fmt.Errorf("ヒーロー画像の URL が不正です")
	}
	hero, err := h.heroes.Load(r.Context(), location)
	if err != nil {
		return nil, fmt.Errorf("ヒーロー画像を取得できませんでした")
	}
	return hero, nil
}

// checkHeroLocation は SSRF 対策として data URL と公開ネットワーク上の http(s) URL だけを許可します。
// サーバー経由でローカルファイルや gs:// を読ませないのだ。
func checkHeroLocation(location string) error {
	if strings.HasPrefix(location, "data:") {
		return nil
	}
	u, err := url.ParseRequestURI(location)
	if err != nil {
		return fmt.Errorf("URLパース失敗: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("不許可スキーム: %s", u.Scheme)
	}
	ips, err := net.LookupIP(u.Hostname())
	if err != nil {
		return fmt.Errorf("ホスト '%s' の名前解決に失敗しました: %w", u.Hostname(), err)
	}
	for _, ip := range ips {
		if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
			return fmt.Errorf("制限されたネットワークへのアクセスを検知: %s", ip.String())
		}
	}
	return nil
}

func isTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "on", "yes":
		return true
	default:
		return false
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("レスポンスの書き込みに失敗しました", "error", err)
	}
}
