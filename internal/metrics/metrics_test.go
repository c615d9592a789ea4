// mqttwatch - MQTT Event Logging and Flood Detection
// Copyright 2026 blwfish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/blwfish/mqttwatch

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordStoreWriteSuccess(t *testing.T) {
	storedBefore := testutil.ToFloat64(EventsStored)
	errorsBefore := testutil.ToFloat64(StoreErrors)

	RecordStoreWrite(3*time.Millisecond, nil)

	if got := testutil.ToFloat64(EventsStored); got != storedBefore+1 {
		t.Errorf("EventsStored = %v, want %v", got, storedBefore+1)
	}
	if got := testutil.ToFloat64(StoreErrors); got != errorsBefore {
		t.Errorf("StoreErrors = %v, want unchanged %v", got, errorsBefore)
	}
}

func TestRecordStoreWriteError(t *testing.T) {
	storedBefore := testutil.ToFloat64(EventsStored)
	errorsBefore := testutil.ToFloat64(StoreErrors)

	RecordStoreWrite(3*time.Millisecond, errors.New("disk full"))

	if got := testutil.ToFloat64(StoreErrors); got != errorsBefore+1 {
		t.Errorf("StoreErrors = %v, want %v", got, errorsBefore+1)
	}
	if got := testutil.ToFloat64(EventsStored); got != storedBefore {
		t.Errorf("EventsStored = %v, want unchanged %v", got, storedBefore)
	}
}

func TestTrackedTopicsGauge(t *testing.T) {
	TrackedTopics.Set(7)
	if got := testutil.ToFloat64(TrackedTopics); got != 7 {
		t.Errorf("TrackedTopics = %v, want 7", got)
	}
	TrackedTopics.Set(0)
	if got := testutil.ToFloat64(TrackedTopics); got != 0 {
		t.Errorf("TrackedTopics = %v, want 0", got)
	}
}
