package sloghooks

import (
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/cacheflow"
	"github.com/unkn0wn-root/cacheflow/internal/util"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	HitEvery  uint64
	MissEvery uint64
	// LogHits turns on hit logging; hits are silent otherwise.
	LogHits bool
	// Optional key redactor. Defaults to a SHA-256 prefix.
	Redact func(string) string
}

// Hooks logs cache events to slog. Errors are logged at Warn or Error;
// hits and misses at Debug.
type Hooks struct {
	l    *slog.Logger
	opts Options

	hitCtr  atomic.Uint64
	missCtr atomic.Uint64
}

var _ cacheflow.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	return util.ShortHash(k)
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) Hit(storageKey string, m cacheflow.Method) {
	if h.l == nil || !h.opts.LogHits || !sample(h.opts.HitEvery, &h.hitCtr) {
		return
	}
	h.l.Debug("cacheflow.hit",
		"key", h.redact(storageKey),
		"method", m.String())
}

func (h *Hooks) Miss(storageKey string, m cacheflow.Method) {
	if h.l == nil || !sample(h.opts.MissEvery, &h.missCtr) {
		return
	}
	h.l.Debug("cacheflow.miss",
		"key", h.redact(storageKey),
		"method", m.String())
}

func (h *Hooks) FactoryCalled(storageKey string, m cacheflow.Method, produced bool) {
	if h.l == nil {
		return
	}
	h.l.Debug("cacheflow.factory_called",
		"key", h.redact(storageKey),
		"method", m.String(),
		"produced", produced)
}

func (h *Hooks) ProviderSetRejected(storageKey string, m cacheflow.Method) {
	if h.l == nil {
		return
	}
	h.l.Warn("cacheflow.provider_set_rejected",
		"key", h.redact(storageKey),
		"method", m.String())
}

func (h *Hooks) WriteBackFailed(storageKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("cacheflow.write_back_failed",
		"key", h.redact(storageKey),
		"err", err)
}

func (h *Hooks) OpFailed(storageKey string, m cacheflow.Method, op string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("cacheflow.op_failed",
		"key", h.redact(storageKey),
		"method", m.String(),
		"op", op,
		"err", err)
}

func (h *Hooks) InvalidQuery(entry string, m cacheflow.Method) {
	if h.l == nil {
		return
	}
	h.l.Warn("cacheflow.invalid_query",
		"entry", entry,
		"method", m.String())
}
