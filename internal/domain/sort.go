package domain

import "sort"

// Display orderings. All sorts are stable: records without a usable
// sort key keep their relative order.

// SortTransactions orders by date, newest first.
func SortTransactions(list []Transaction) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Date > list[j].Date
	})
}

// SortProjects orders by creation time, newest first.
func SortProjects(list []Project) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt > list[j].CreatedAt
	})
}

// SortNotifications orders urgent first, then unread, then newest.
func SortNotifications(list []Notification) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Urgent != b.Urgent {
			return a.Urgent
		}
		if a.Read != b.Read {
			return !a.Read
		}
		return a.CreatedAt > b.CreatedAt
	})
}
