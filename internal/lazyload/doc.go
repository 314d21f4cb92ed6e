// Package lazyload scrolls a page to make lazily loaded content materialize
// before it is measured.
//
// Trigger scrolls a Viewport down in fixed steps until the scroll position
// reaches the scroll height or a hard timeout fires, then always returns
// to the original offset and waits a settle interval. The timeout is a
// bound on latency, not an error.
package lazyload
