package metrics

import (
	"context"
	"time"

	"github.com/MR4white/tigase-mongodb/internal/metrics"
	"github.com/MR4white/tigase-mongodb/internal/model"
	"github.com/MR4white/tigase-mongodb/internal/registry/store"
	"github.com/MR4white/tigase-mongodb/internal/rsm"
)

// Wrap returns a Store that records StoreLatency for every operation.
func Wrap(inner store.Store) store.Store {
	return &metricsStore{inner: inner}
}

type metricsStore struct {
	inner store.Store
}

func observe(op string, start time.Time) {
	if metrics.StoreLatency == nil {
		return
	}
	metrics.StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *metricsStore) AddUser(ctx context.Context, jid string) error {
	defer observe("add_user", time.Now())
	return m.inner.AddUser(ctx, jid)
}

func (m *metricsStore) AddUserWithPassword(ctx context.Context, jid, password string) error {
	defer observe("add_user", time.Now())
	return m.inner.AddUserWithPassword(ctx, jid, password)
}

func (m *metricsStore) UserExists(ctx context.Context, jid string) (bool, error) {
	defer observe("user_exists", time.Now())
	return m.inner.UserExists(ctx, jid)
}

func (m *metricsStore) Users(ctx context.Context) ([]string, error) {
	defer observe("list_users", time.Now())
	return m.inner.Users(ctx)
}

func (m *metricsStore) CountUsers(ctx context.Context) (int64, error) {
	defer observe("count_users", time.Now())
	return m.inner.CountUsers(ctx)
}

func (m *metricsStore) CountDomainUsers(ctx context.Context, domain string) (int64, error) {
	defer observe("count_users", time.Now())
	return m.inner.CountDomainUsers(ctx, domain)
}

func (m *metricsStore) RemoveUser(ctx context.Context, jid string) error {
	defer observe("remove_user", time.Now())
	return m.inner.RemoveUser(ctx, jid)
}

func (m *metricsStore) GetPassword(ctx context.Context, jid string) (string, error) {
	defer observe("get_password", time.Now())
	return m.inner.GetPassword(ctx, jid)
}

func (m *metricsStore) UpdatePassword(ctx context.Context, jid, password string) error {
	defer observe("update_password", time.Now())
	return m.inner.UpdatePassword(ctx, jid, password)
}

func (m *metricsStore) IsDisabled(ctx context.Context, jid string) (bool, error) {
	defer observe("is_disabled", time.Now())
	return m.inner.IsDisabled(ctx, jid)
}

func (m *metricsStore) SetDisabled(ctx context.Context, jid string, disabled bool) error {
	defer observe("set_disabled", time.Now())
	return m.inner.SetDisabled(ctx, jid, disabled)
}

func (m *metricsStore) SetData(ctx context.Context, jid, node, key, value string) error {
	defer observe("set_data", time.Now())
	return m.inner.SetData(ctx, jid, node, key, value)
}

func (m *metricsStore) SetDataList(ctx context.Context, jid, node, key string, values []string) error {
	defer observe("set_data_list", time.Now())
	return m.inner.SetDataList(ctx, jid, node, key, values)
}

func (m *metricsStore) AddDataList(ctx context.Context, jid, node, key string, values []string) error {
	defer observe("add_data_list", time.Now())
	return m.inner.AddDataList(ctx, jid, node, key, values)
}

func (m *metricsStore) GetData(ctx context.Context, jid, node, key string) (string, bool, error) {
	defer observe("get_data", time.Now())
	return m.inner.GetData(ctx, jid, node, key)
}

func (m *metricsStore) GetDataList(ctx context.Context, jid, node, key string) ([]string, error) {
	defer observe("get_data_list", time.Now())
	return m.inner.GetDataList(ctx, jid, node, key)
}

func (m *metricsStore) Keys(ctx context.Context, jid, node string) ([]string, error) {
	defer observe("list_keys", time.Now())
	return m.inner.Keys(ctx, jid, node)
}

func (m *metricsStore) Subnodes(ctx context.Context, jid, node string) ([]string, error) {
	defer observe("list_subnodes", time.Now())
	return m.inner.Subnodes(ctx, jid, node)
}

func (m *metricsStore) RemoveData(ctx context.Context, jid, node, key string) error {
	defer observe("remove_data", time.Now())
	return m.inner.RemoveData(ctx, jid, node, key)
}

func (m *metricsStore) RemoveSubnode(ctx context.Context, jid, node string) error {
	defer observe("remove_subnode", time.Now())
	return m.inner.RemoveSubnode(ctx, jid, node)
}

func (m *metricsStore) ArchiveMessage(ctx context.Context, owner, buddy string, direction model.Direction, timestamp time.Time, payload string) {
	defer observe("archive_message", time.Now())
	m.inner.ArchiveMessage(ctx, owner, buddy, direction, timestamp, payload)
}

func (m *metricsStore) ListCollections(ctx context.Context, owner, buddy string, start, end time.Time, req rsm.Request) ([]model.Conversation, rsm.Result, error) {
	defer observe("list_collections", time.Now())
	return m.inner.ListCollections(ctx, owner, buddy, start, end, req)
}

func (m *metricsStore) ListMessages(ctx context.Context, owner, buddy string, start, end time.Time, req rsm.Request) ([]model.MessageItem, rsm.Result, error) {
	defer observe("list_messages", time.Now())
	return m.inner.ListMessages(ctx, owner, buddy, start, end, req)
}

func (m *metricsStore) RemoveItems(ctx context.Context, owner, buddy string, start, end time.Time) error {
	defer observe("remove_items", time.Now())
	return m.inner.RemoveItems(ctx, owner, buddy, start, end)
}

func (m *metricsStore) Close(ctx context.Context) error {
	return m.inner.Close(ctx)
}
