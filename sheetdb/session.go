// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package sheetdb

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Session holds the open tab handles and typed tables of one authenticated
// session. Every mutation goes to the remote store first and is followed by a
// full reload of the affected table.
//
// Mutations and reloads of the same table are serialized, so a reload can
// never overtake the refresh of another mutation. Sessions do not coordinate
// with each other: concurrent writers on the same spreadsheet get
// last-write-wins.
type Session struct {
	log          *zap.Logger
	materializer *Materializer
	remote       remote

	mu      sync.RWMutex
	entries map[string]*entry
}

type entry struct {
	schema Schema
	// write serializes remote writes and reloads of this table.
	write sync.Mutex

	// sheet and table are guarded by Session.mu and only replaced together.
	sheet Sheet
	table *Table
}

// Open materializes every registry table of spreadsheet and returns the
// session owning them.
func Open(ctx context.Context, log *zap.Logger, spreadsheet Spreadsheet, config Config) (_ *Session, err error) {
	defer mon.Task()(&ctx)(&err)

	materializer := NewMaterializer(log, spreadsheet, config)
	sheets, err := materializer.OpenAll(ctx)
	if err != nil {
		return nil, err
	}
	tables, err := materializer.LoadAll(ctx, sheets)
	if err != nil {
		return nil, err
	}

	entries := make(map[string]*entry, len(registry))
	for _, schema := range registry {
		entries[schema.Name] = &entry{
			schema: schema.clone(),
			sheet:  sheets[schema.Name],
			table:  tables[schema.Name],
		}
	}

	log.Info("session opened", zap.Int("tables", len(entries)))
	return &Session{
		log:          log,
		materializer: materializer,
		remote:       materializer.remote,
		entries:      entries,
	}, nil
}

// Close discards every handle and cached table. Later calls fail.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entries == nil {
		return nil
	}
	s.entries = nil
	s.log.Info("session closed")
	return nil
}

func (s *Session) entry(name string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.entries == nil {
		return nil, Error.New("session closed")
	}
	e, ok := s.entries[name]
	if !ok {
		return nil, Error.New("unknown table %q", name)
	}
	return e, nil
}

func (s *Session) current(e *entry) (Sheet, *Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.entries == nil {
		return nil, nil, Error.New("session closed")
	}
	return e.sheet, e.table, nil
}

// commit replaces cached pairs. It fails when the session was closed meanwhile.
func (s *Session) commit(entries []*entry, sheets []Sheet, tables []*Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entries == nil {
		return Error.New("session closed")
	}
	for i, e := range entries {
		e.sheet, e.table = sheets[i], tables[i]
	}
	return nil
}

// Table returns a copy of the cached table.
func (s *Session) Table(name string) (*Table, error) {
	e, err := s.entry(name)
	if err != nil {
		return nil, err
	}
	_, table, err := s.current(e)
	if err != nil {
		return nil, err
	}
	return table.Clone(), nil
}

// Tables returns copies of every cached table.
func (s *Session) Tables() (map[string]*Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.entries == nil {
		return nil, Error.New("session closed")
	}
	tables := make(map[string]*Table, len(s.entries))
	for name, e := range s.entries {
		tables[name] = e.table.Clone()
	}
	return tables, nil
}

// Reload re-reads the named table from its tab and replaces the cached copy.
func (s *Session) Reload(ctx context.Context, name string) (err error) {
	defer mon.Task()(&ctx)(&err)

	e, err := s.entry(name)
	if err != nil {
		return err
	}

	e.write.Lock()
	defer e.write.Unlock()

	return s.reload(ctx, e)
}

// reload requires e.write to be held.
func (s *Session) reload(ctx context.Context, e *entry) error {
	sheet, _, err := s.current(e)
	if err != nil {
		return err
	}
	table, err := s.materializer.Load(ctx, e.schema.Name, sheet)
	if err != nil {
		return err
	}
	s.log.Debug("table reloaded", zap.String("table", e.schema.Name), zap.Int("rows", table.Len()))
	return s.commit([]*entry{e}, []Sheet{sheet}, []*Table{table})
}

// ReloadAll re-reads every table. The cache is only replaced when every table
// loaded successfully.
func (s *Session) ReloadAll(ctx context.Context) (err error) {
	defer mon.Task()(&ctx)(&err)

	entries := make([]*entry, 0, len(registry))
	for _, schema := range registry {
		e, err := s.entry(schema.Name)
		if err != nil {
			return err
		}
		entries = append(entries, e)
	}

	// registry order keeps lock acquisition consistent between callers
	for _, e := range entries {
		e.write.Lock()
		defer e.write.Unlock()
	}

	sheets := make([]Sheet, len(entries))
	tables := make([]*Table, len(entries))
	for i, e := range entries {
		sheets[i], _, err = s.current(e)
		if err != nil {
			return err
		}
	}

	group, gctx := errgroup.WithContext(ctx)
	for i, e := range entries {
		group.Go(func() (err error) {
			tables[i], err = s.materializer.Load(gctx, e.schema.Name, sheets[i])
			return err
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	s.log.Debug("all tables reloaded", zap.Int("tables", len(entries)))
	return s.commit(entries, sheets, tables)
}

// mutate runs fn with the table's write lock held and reloads the table when
// fn reports affected rows. A failing fn leaves the cache untouched.
func (s *Session) mutate(ctx context.Context, name string, fn func(ctx context.Context, schema Schema, sheet Sheet, table *Table) (int, error)) (int, error) {
	e, err := s.entry(name)
	if err != nil {
		return 0, err
	}

	e.write.Lock()
	defer e.write.Unlock()

	sheet, table, err := s.current(e)
	if err != nil {
		return 0, err
	}

	affected, err := fn(ctx, e.schema, sheet, table)
	if err != nil || affected == 0 {
		return 0, err
	}
	if err := s.reload(ctx, e); err != nil {
		return affected, err
	}
	return affected, nil
}
