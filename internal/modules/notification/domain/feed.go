package domain

import "sort"

// Feed is the local, deduplicated notification list of one session.
//
// Every id that has ever been applied stays in the seen set until the feed is
// discarded, including ids of removed notifications, so a deleted record is
// never resurrected by a later delivery. Feed is not safe for concurrent use.
type Feed struct {
	items []Notification
	seen  map[NotificationID]struct{}
}

func NewFeed() *Feed {
	return &Feed{seen: make(map[NotificationID]struct{})}
}

func (f *Feed) Known(id NotificationID) bool {
	_, ok := f.seen[id]
	return ok
}

// Prepend inserts n at the head of the feed. It reports false when n has no id
// or its id was already applied.
func (f *Feed) Prepend(n Notification) bool {
	if n.ID == "" || f.Known(n.ID) {
		return false
	}
	f.seen[n.ID] = struct{}{}
	f.items = append([]Notification{n}, f.items...)
	return true
}

// Merge places the unknown records of batch ahead of the existing ones,
// keeping the batch order, and returns the records that were added. The feed
// is then re-sorted newest first; records with equal timestamps keep their
// relative order.
func (f *Feed) Merge(batch []Notification) []Notification {
	var added []Notification
	for _, n := range batch {
		if n.ID == "" || f.Known(n.ID) {
			continue
		}
		f.seen[n.ID] = struct{}{}
		added = append(added, n)
	}
	if len(added) == 0 {
		return nil
	}

	merged := make([]Notification, 0, len(added)+len(f.items))
	merged = append(merged, added...)
	merged = append(merged, f.items...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	f.items = merged
	return added
}

// MarkRead flips is_read to true on the matching records and returns how many
// records changed. Read records are never reset.
func (f *Feed) MarkRead(ids []NotificationID) int {
	want := idSet(ids)
	changed := 0
	for i := range f.items {
		if _, ok := want[f.items[i].ID]; ok && !f.items[i].IsRead {
			f.items[i].IsRead = true
			changed++
		}
	}
	return changed
}

// Remove drops the matching records and returns how many of them were unread.
// Every id in ids becomes known, including ids the feed never held, so a
// delivery that arrives after the deletion is rejected.
func (f *Feed) Remove(ids []NotificationID) int {
	want := idSet(ids)
	for id := range want {
		if id != "" {
			f.seen[id] = struct{}{}
		}
	}
	kept := f.items[:0]
	removedUnread := 0
	for _, n := range f.items {
		if _, ok := want[n.ID]; ok {
			if !n.IsRead {
				removedUnread++
			}
			continue
		}
		kept = append(kept, n)
	}
	for i := len(kept); i < len(f.items); i++ {
		f.items[i] = Notification{}
	}
	f.items = kept
	return removedUnread
}

func (f *Feed) UnreadCount() int {
	count := 0
	for _, n := range f.items {
		if !n.IsRead {
			count++
		}
	}
	return count
}

func (f *Feed) UnreadIDs() []NotificationID {
	var ids []NotificationID
	for _, n := range f.items {
		if !n.IsRead {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

func (f *Feed) Len() int {
	return len(f.items)
}

// Items returns a copy of the feed, newest first.
func (f *Feed) Items() []Notification {
	out := make([]Notification, len(f.items))
	copy(out, f.items)
	return out
}

func idSet(ids []NotificationID) map[NotificationID]struct{} {
	set := make(map[NotificationID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
