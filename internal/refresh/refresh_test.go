package refresh

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/mock"

	"f1insights/internal/engine"
	"f1insights/internal/refresh/mocks"
)

func table(t *testing.T, tag string, rows int) *engine.ColumnStore {
	var b strings.Builder
	b.WriteString("Nationality,Race_Entries,Podiums\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "%s,%d,%d\n", tag, i, i)
	}
	store, err := engine.LoadCSV(strings.NewReader(b.String()))
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func TestScheduler(t *testing.T) {
	Convey("While using the refresh scheduler", t, func() {
		fetcher := new(mocks.Fetcher)
		s := New(fetcher, time.Second, nil)
		ctx := context.Background()

		Convey("Before the first tick there is no snapshot", func() {
			So(s.Snapshot(), ShouldBeNil)
			So(s.LastFailure(), ShouldBeNil)
			So(s.Ready(), ShouldBeFalse)
		})

		Convey("A successful tick installs version 1", func() {
			first := table(t, "British", 3)
			fetcher.On("Fetch", mock.Anything).Return(first, nil).Once()

			So(s.Tick(ctx), ShouldBeNil)
			snap := s.Snapshot()
			So(snap, ShouldNotBeNil)
			So(snap.Version, ShouldEqual, 1)
			So(snap.Table, ShouldEqual, first)
			So(s.Ready(), ShouldBeTrue)

			Convey("A failed tick keeps the table and records the failure", func() {
				fetcher.On("Fetch", mock.Anything).Return(nil, errors.New("boom")).Once()

				err := s.Tick(ctx)
				So(err, ShouldNotBeNil)
				So(s.Snapshot(), ShouldEqual, snap)
				So(s.LastFailure(), ShouldNotBeNil)
				So(s.LastFailure().Err.Error(), ShouldEqual, "boom")

				Convey("And the next success replaces the table and clears the failure", func() {
					second := table(t, "German", 1)
					fetcher.On("Fetch", mock.Anything).Return(second, nil).Once()

					So(s.Tick(ctx), ShouldBeNil)
					So(s.Snapshot().Version, ShouldEqual, 2)
					So(s.Snapshot().Table, ShouldEqual, second)
					So(s.Snapshot().FetchID, ShouldNotEqual, snap.FetchID)
					So(s.LastFailure(), ShouldBeNil)
					fetcher.AssertExpectations(t)
				})
			})
		})

		Convey("A failing first tick leaves the scheduler not ready", func() {
			fetcher.On("Fetch", mock.Anything).Return(nil, errors.New("offline")).Once()

			So(s.Tick(ctx), ShouldNotBeNil)
			So(s.Snapshot(), ShouldBeNil)
			So(s.Ready(), ShouldBeFalse)
		})
	})
}

func TestSchedulerRun(t *testing.T) {
	Convey("When the refresh loop runs", t, func() {
		fetcher := new(mocks.Fetcher)
		s := New(fetcher, 10*time.Millisecond, nil)
		var calls atomic.Int32

		// Every other fetch fails; the loop must keep going regardless.
		fetcher.On("Fetch", mock.Anything).Return(
			func(context.Context) *engine.ColumnStore {
				if calls.Add(1)%2 == 0 {
					return nil
				}
				return table(t, "British", 2)
			},
			func(context.Context) error {
				if calls.Load()%2 == 0 {
					return errors.New("flaky")
				}
				return nil
			},
		)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- s.Run(ctx) }()

		deadline := time.After(2 * time.Second)
		for calls.Load() < 5 {
			select {
			case <-deadline:
				t.Fatal("refresh loop stalled")
			case <-time.After(5 * time.Millisecond):
			}
		}
		cancel()

		So(<-done, ShouldBeNil)
		So(s.Snapshot(), ShouldNotBeNil)
		So(s.Snapshot().Version, ShouldBeGreaterThanOrEqualTo, 2)
	})
}

func TestSnapshotSwapIsAtomic(t *testing.T) {
	Convey("Readers never see rows from two fetches in one snapshot", t, func() {
		tables := []*engine.ColumnStore{table(t, "British", 200), table(t, "German", 150)}
		fetcher := new(mocks.Fetcher)
		var n atomic.Int32
		fetcher.On("Fetch", mock.Anything).Return(
			func(context.Context) *engine.ColumnStore { return tables[n.Add(1)%2] },
			nil,
		)
		s := New(fetcher, time.Millisecond, nil)
		So(s.Tick(context.Background()), ShouldBeNil)

		stop := make(chan struct{})
		var writer sync.WaitGroup
		writer.Add(1)
		go func() {
			defer writer.Done()
			for {
				select {
				case <-stop:
					return
				default:
					_ = s.Tick(context.Background())
				}
			}
		}()

		var mixed atomic.Int32
		var readers sync.WaitGroup
		for i := 0; i < 4; i++ {
			readers.Add(1)
			go func() {
				defer readers.Done()
				for j := 0; j < 500; j++ {
					snap := s.Snapshot()
					nat, _ := snap.Table.Column("Nationality")
					first := nat.String(0)
					for r := 0; r < snap.Table.Rows; r++ {
						if nat.String(r) != first {
							mixed.Add(1)
						}
					}
				}
			}()
		}
		readers.Wait()
		close(stop)
		writer.Wait()

		So(mixed.Load(), ShouldEqual, 0)
	})
}
