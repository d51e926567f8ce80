package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"fitlog/fitness-tracker/internal/domain"
	"fitlog/fitness-tracker/internal/repository"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- in-memory fakes ---

// fakeStore is the shared backing state for all workout-related fake
// repositories. fakeTxManager snapshots it before running a transaction
// body and restores it on error, mimicking a rollback.
type fakeStore struct {
	workouts  map[primitive.ObjectID]domain.Workout
	exercises map[primitive.ObjectID]domain.WorkoutExercise
	sets      map[primitive.ObjectID]domain.ExerciseSet
	catalog   map[primitive.ObjectID]domain.Exercise
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		workouts:  make(map[primitive.ObjectID]domain.Workout),
		exercises: make(map[primitive.ObjectID]domain.WorkoutExercise),
		sets:      make(map[primitive.ObjectID]domain.ExerciseSet),
		catalog:   make(map[primitive.ObjectID]domain.Exercise),
	}
}

func (s *fakeStore) snapshot() *fakeStore {
	snap := newFakeStore()
	for k, v := range s.workouts {
		snap.workouts[k] = v
	}
	for k, v := range s.exercises {
		snap.exercises[k] = v
	}
	for k, v := range s.sets {
		snap.sets[k] = v
	}
	for k, v := range s.catalog {
		snap.catalog[k] = v
	}
	return snap
}

func (s *fakeStore) restore(snap *fakeStore) {
	s.workouts = snap.workouts
	s.exercises = snap.exercises
	s.sets = snap.sets
	s.catalog = snap.catalog
}

type fakeTxManager struct {
	store *fakeStore
}

func (m *fakeTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := m.store.snapshot()
	if err := fn(ctx); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

// retryingTxManager abandons the first attempt of every transaction body
// and replays it, the way a Mongo session retries on a transient error.
type retryingTxManager struct {
	store    *fakeStore
	attempts int
}

func (m *retryingTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := m.store.snapshot()
	_ = fn(ctx)
	m.store.restore(snap)
	m.attempts++

	if err := fn(ctx); err != nil {
		m.store.restore(snap)
		return err
	}
	m.attempts++
	return nil
}

type fakeWorkoutRepo struct{ store *fakeStore }

func (r *fakeWorkoutRepo) Create(_ context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	workout.ID = primitive.NewObjectID()
	workout.CreatedAt = time.Now()
	workout.UpdatedAt = workout.CreatedAt
	r.store.workouts[workout.ID] = *workout
	return workout.ID, nil
}

func (r *fakeWorkoutRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	w, ok := r.store.workouts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &w, nil
}

func (r *fakeWorkoutRepo) Update(_ context.Context, workout *domain.Workout) error {
	if _, ok := r.store.workouts[workout.ID]; !ok {
		return repository.ErrNotFound
	}
	workout.UpdatedAt = time.Now()
	r.store.workouts[workout.ID] = *workout
	return nil
}

func (r *fakeWorkoutRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.store.workouts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.store.workouts, id)
	return nil
}

func (r *fakeWorkoutRepo) ListByUserID(_ context.Context, userID primitive.ObjectID, filter repository.WorkoutFilter) ([]domain.Workout, int64, error) {
	var out []domain.Workout
	for _, w := range r.store.workouts {
		if w.UserID != userID {
			continue
		}
		if filter.IsCompleted != nil && w.IsCompleted != *filter.IsCompleted {
			continue
		}
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledDate.After(out[j].ScheduledDate) })
	return out, int64(len(out)), nil
}

type fakeWorkoutExerciseRepo struct{ store *fakeStore }

func (r *fakeWorkoutExerciseRepo) Create(_ context.Context, we *domain.WorkoutExercise) (primitive.ObjectID, error) {
	we.ID = primitive.NewObjectID()
	r.store.exercises[we.ID] = *we
	return we.ID, nil
}

func (r *fakeWorkoutExerciseRepo) Update(_ context.Context, we *domain.WorkoutExercise) error {
	if _, ok := r.store.exercises[we.ID]; !ok {
		return repository.ErrNotFound
	}
	r.store.exercises[we.ID] = *we
	return nil
}

func (r *fakeWorkoutExerciseRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.store.exercises[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.store.exercises, id)
	return nil
}

func (r *fakeWorkoutExerciseRepo) GetByWorkoutID(_ context.Context, workoutID primitive.ObjectID) ([]domain.WorkoutExercise, error) {
	var out []domain.WorkoutExercise
	for _, we := range r.store.exercises {
		if we.WorkoutID == workoutID {
			out = append(out, we)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *fakeWorkoutExerciseRepo) DeleteByWorkoutID(_ context.Context, workoutID primitive.ObjectID) error {
	for id, we := range r.store.exercises {
		if we.WorkoutID == workoutID {
			delete(r.store.exercises, id)
		}
	}
	return nil
}

func (r *fakeWorkoutExerciseRepo) SetCompletionByWorkoutID(_ context.Context, workoutID primitive.ObjectID, completed bool) error {
	for id, we := range r.store.exercises {
		if we.WorkoutID == workoutID {
			we.IsCompleted = completed
			r.store.exercises[id] = we
		}
	}
	return nil
}

type fakeExerciseSetRepo struct{ store *fakeStore }

func (r *fakeExerciseSetRepo) Create(_ context.Context, set *domain.ExerciseSet) (primitive.ObjectID, error) {
	set.ID = primitive.NewObjectID()
	r.store.sets[set.ID] = *set
	return set.ID, nil
}

func (r *fakeExerciseSetRepo) Update(_ context.Context, set *domain.ExerciseSet) error {
	if _, ok := r.store.sets[set.ID]; !ok {
		return repository.ErrNotFound
	}
	r.store.sets[set.ID] = *set
	return nil
}

func (r *fakeExerciseSetRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.store.sets[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.store.sets, id)
	return nil
}

func (r *fakeExerciseSetRepo) GetByWorkoutExerciseID(_ context.Context, workoutExerciseID primitive.ObjectID) ([]domain.ExerciseSet, error) {
	var out []domain.ExerciseSet
	for _, set := range r.store.sets {
		if set.WorkoutExerciseID == workoutExerciseID {
			out = append(out, set)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SetNumber < out[j].SetNumber })
	return out, nil
}

func (r *fakeExerciseSetRepo) DeleteByWorkoutExerciseID(_ context.Context, workoutExerciseID primitive.ObjectID) error {
	for id, set := range r.store.sets {
		if set.WorkoutExerciseID == workoutExerciseID {
			delete(r.store.sets, id)
		}
	}
	return nil
}

func (r *fakeExerciseSetRepo) DeleteByWorkoutExerciseIDs(ctx context.Context, workoutExerciseIDs []primitive.ObjectID) error {
	for _, id := range workoutExerciseIDs {
		if err := r.DeleteByWorkoutExerciseID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeExerciseSetRepo) SetCompletionByWorkoutExerciseIDs(_ context.Context, workoutExerciseIDs []primitive.ObjectID, completed bool) error {
	for _, weID := range workoutExerciseIDs {
		for id, set := range r.store.sets {
			if set.WorkoutExerciseID == weID {
				set.IsCompleted = completed
				r.store.sets[id] = set
			}
		}
	}
	return nil
}

type fakeCatalogRepo struct{ store *fakeStore }

func (r *fakeCatalogRepo) Create(_ context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	exercise.ID = primitive.NewObjectID()
	r.store.catalog[exercise.ID] = *exercise
	return exercise.ID, nil
}

func (r *fakeCatalogRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	ex, ok := r.store.catalog[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &ex, nil
}

func (r *fakeCatalogRepo) GetByName(_ context.Context, name string) (*domain.Exercise, error) {
	for _, ex := range r.store.catalog {
		if ex.Name == name {
			return &ex, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeCatalogRepo) Update(_ context.Context, exercise *domain.Exercise) error {
	if _, ok := r.store.catalog[exercise.ID]; !ok {
		return repository.ErrNotFound
	}
	r.store.catalog[exercise.ID] = *exercise
	return nil
}

func (r *fakeCatalogRepo) List(_ context.Context, _ repository.ExerciseFilter) ([]domain.Exercise, int64, error) {
	var out []domain.Exercise
	for _, ex := range r.store.catalog {
		if ex.IsActive {
			out = append(out, ex)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, int64(len(out)), nil
}

// --- test fixture ---

type workoutFixture struct {
	svc     WorkoutService
	store   *fakeStore
	userID  primitive.ObjectID
	bench   primitive.ObjectID // catalog: bench press
	squat   primitive.ObjectID // catalog: squat
	running primitive.ObjectID // catalog: running
}

func newWorkoutFixture(t *testing.T) *workoutFixture {
	t.Helper()
	store := newFakeStore()
	catalog := &fakeCatalogRepo{store: store}

	mk := func(name string, mg domain.MuscleGroup, typ domain.ExerciseType) primitive.ObjectID {
		id, err := catalog.Create(context.Background(), &domain.Exercise{
			Name:               name,
			PrimaryMuscleGroup: mg,
			Type:               typ,
			IsActive:           true,
		})
		require.NoError(t, err)
		return id
	}

	return &workoutFixture{
		svc: NewWorkoutService(
			&fakeWorkoutRepo{store: store},
			&fakeWorkoutExerciseRepo{store: store},
			&fakeExerciseSetRepo{store: store},
			catalog,
			&fakeTxManager{store: store},
		),
		store:   store,
		userID:  primitive.NewObjectID(),
		bench:   mk("Bench Press", domain.MuscleGroupChest, domain.ExerciseTypeStrength),
		squat:   mk("Squat", domain.MuscleGroupLegs, domain.ExerciseTypeStrength),
		running: mk("Running", domain.MuscleGroupCardio, domain.ExerciseTypeCardio),
	}
}

func (f *workoutFixture) createWorkout(t *testing.T, exercises ...WorkoutExerciseInput) *domain.WorkoutDetail {
	t.Helper()
	detail, err := f.svc.CreateWorkout(context.Background(), f.userID, CreateWorkoutInput{
		Name:             "Push Day",
		ScheduledDate:    time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC),
		WorkoutExercises: exercises,
	})
	require.NoError(t, err)
	return detail
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func benchWithSets(exerciseID primitive.ObjectID, order int) WorkoutExerciseInput {
	return WorkoutExerciseInput{
		ExerciseID: exerciseID,
		Order:      order,
		Sets: []ExerciseSetInput{
			{SetNumber: 1, Weight: floatPtr(60), Reps: intPtr(10)},
			{SetNumber: 2, Weight: floatPtr(65), Reps: intPtr(8)},
		},
	}
}

// --- create / read ---

func TestCreateWorkoutInsertsFullTree(t *testing.T) {
	f := newWorkoutFixture(t)

	detail := f.createWorkout(t, benchWithSets(f.bench, 0), WorkoutExerciseInput{ExerciseID: f.squat, Order: 1})

	require.Len(t, detail.WorkoutExercises, 2)
	require.Equal(t, f.bench, detail.WorkoutExercises[0].ExerciseID)
	require.Len(t, detail.WorkoutExercises[0].Sets, 2)
	require.Equal(t, 1, detail.WorkoutExercises[0].Sets[0].SetNumber)
	require.NotNil(t, detail.WorkoutExercises[0].Exercise)
	require.Equal(t, "Bench Press", detail.WorkoutExercises[0].Exercise.Name)
	require.Empty(t, detail.WorkoutExercises[1].Sets)
}

func TestCreateWorkoutUnknownCatalogExerciseRollsBack(t *testing.T) {
	f := newWorkoutFixture(t)
	missing := primitive.NewObjectID()

	_, err := f.svc.CreateWorkout(context.Background(), f.userID, CreateWorkoutInput{
		Name:          "Broken",
		ScheduledDate: time.Now(),
		WorkoutExercises: []WorkoutExerciseInput{
			benchWithSets(f.bench, 0),
			{ExerciseID: missing, Order: 1},
		},
	})
	require.ErrorIs(t, err, ErrCatalogExerciseNotFound)
	require.Contains(t, err.Error(), missing.Hex())

	// The first exercise must not survive the failed create.
	require.Empty(t, f.store.workouts)
	require.Empty(t, f.store.exercises)
	require.Empty(t, f.store.sets)
}

func TestGetWorkoutReturnsOrderedTree(t *testing.T) {
	f := newWorkoutFixture(t)
	detail := f.createWorkout(t,
		WorkoutExerciseInput{ExerciseID: f.squat, Order: 2},
		WorkoutExerciseInput{ExerciseID: f.bench, Order: 0},
		WorkoutExerciseInput{ExerciseID: f.running, Order: 1},
	)

	got, err := f.svc.GetWorkoutByID(context.Background(), f.userID, detail.ID)
	require.NoError(t, err)
	require.Len(t, got.WorkoutExercises, 3)
	require.Equal(t, []primitive.ObjectID{f.bench, f.running, f.squat}, []primitive.ObjectID{
		got.WorkoutExercises[0].ExerciseID,
		got.WorkoutExercises[1].ExerciseID,
		got.WorkoutExercises[2].ExerciseID,
	})
}

func TestGetWorkoutDeniedForNonOwner(t *testing.T) {
	f := newWorkoutFixture(t)
	detail := f.createWorkout(t)

	_, err := f.svc.GetWorkoutByID(context.Background(), primitive.NewObjectID(), detail.ID)
	require.ErrorIs(t, err, ErrWorkoutAccessDenied)
}

// --- reconciliation ---

func TestUpdateWorkoutOmittedTreeLeavesExercisesUntouched(t *testing.T) {
	f := newWorkoutFixture(t)
	detail := f.createWorkout(t, benchWithSets(f.bench, 0))
	origExerciseID := detail.WorkoutExercises[0].ID

	newName := "Renamed"
	got, err := f.svc.UpdateWorkout(context.Background(), f.userID, detail.ID, UpdateWorkoutInput{
		Name: &newName,
		// WorkoutExercises deliberately nil.
	})
	require.NoError(t, err)
	require.Equal(t, "Renamed", got.Name)
	require.Len(t, got.WorkoutExercises, 1)
	require.Equal(t, origExerciseID, got.WorkoutExercises[0].ID)
	require.Len(t, got.WorkoutExercises[0].Sets, 2)
}

func TestUpdateWorkoutEmptyTreeDeletesAllExercisesAndSets(t *testing.T) {
	f := newWorkoutFixture(t)
	detail := f.createWorkout(t, benchWithSets(f.bench, 0), benchWithSets(f.squat, 1))
	require.Len(t, f.store.sets, 4)

	got, err := f.svc.UpdateWorkout(context.Background(), f.userID, detail.ID, UpdateWorkoutInput{
		WorkoutExercises: []WorkoutExerciseInput{},
	})
	require.NoError(t, err)
	require.Empty(t, got.WorkoutExercises)
	require.Empty(t, f.store.exercises)
	require.Empty(t, f.store.sets)
}

func TestReconcileClaimedRowsKeepTheirIdentity(t *testing.T) {
	f := newWorkoutFixture(t)
	detail := f.createWorkout(t, benchWithSets(f.bench, 0))
	weID := detail.WorkoutExercises[0].ID
	setID := detail.WorkoutExercises[0].Sets[0].ID

	got, err := f.svc.UpdateWorkout(context.Background(), f.userID, detail.ID, UpdateWorkoutInput{
		WorkoutExercises: []WorkoutExerciseInput{{
			ID:         &weID,
			ExerciseID: f.bench,
			Order:      0,
			Notes:      "heavier today",
			Sets: []ExerciseSetInput{
				{ID: &setID, SetNumber: 1, Weight: floatPtr(70), Reps: intPtr(8)},
				{SetNumber: 2, Weight: floatPtr(72.5), Reps: intPtr(6)},
			},
		}},
	})
	require.NoError(t, err)
	require.Len(t, got.WorkoutExercises, 1)
	require.Equal(t, weID, got.WorkoutExercises[0].ID)
	require.Equal(t, "heavier today", got.WorkoutExercises[0].Notes)

	sets := got.WorkoutExercises[0].Sets
	require.Len(t, sets, 2)
	require.Equal(t, setID, sets[0].ID)
	require.Equal(t, 70.0, *sets[0].Weight)
	require.NotEqual(t, setID, sets[1].ID)
}

func TestReconcileEntriesWithoutIDBecomeNewRows(t *testing.T) {
	f := newWorkoutFixture(t)
	detail := f.createWorkout(t, benchWithSets(f.bench, 0))
	weID := detail.WorkoutExercises[0].ID

	got, err := f.svc.UpdateWorkout(context.Background(), f.userID, detail.ID, UpdateWorkoutInput{
		WorkoutExercises: []WorkoutExerciseInput{
			{ID: &weID, ExerciseID: f.bench, Order: 0},
			{ExerciseID: f.squat, Order: 1, Sets: []ExerciseSetInput{{SetNumber: 1, Weight: floatPtr(100), Reps: intPtr(5)}}},
		},
	})
	require.NoError(t, err)
	require.Len(t, got.WorkoutExercises, 2)
	require.Equal(t, weID, got.WorkoutExercises[0].ID)
	require.NotEqual(t, primitive.NilObjectID, got.WorkoutExercises[1].ID)
	require.NotEqual(t, weID, got.WorkoutExercises[1].ID)
	require.Len(t, got.WorkoutExercises[1].Sets, 1)

	// The claimed exercise kept its existing sets: its set list was not
	// submitted, which leaves them alone.
	require.Len(t, got.WorkoutExercises[0].Sets, 2)
}

func TestReconcileSweepsUnclaimedRowsAndTheirSets(t *testing.T) {
	f := newWorkoutFixture(t)
	detail := f.createWorkout(t, benchWithSets(f.bench, 0), benchWithSets(f.squat, 1))
	keep := detail.WorkoutExercises[0].ID
	dropped := detail.WorkoutExercises[1].ID

	got, err := f.svc.UpdateWorkout(context.Background(), f.userID, detail.ID, UpdateWorkoutInput{
		WorkoutExercises: []WorkoutExerciseInput{{ID: &keep, ExerciseID: f.bench, Order: 0}},
	})
	require.NoError(t, err)
	require.Len(t, got.WorkoutExercises, 1)
	require.Equal(t, keep, got.WorkoutExercises[0].ID)

	// No orphans: the dropped exercise and all of its sets are gone.
	_, exists := f.store.exercises[dropped]
	require.False(t, exists)
	for _, set := range f.store.sets {
		require.NotEqual(t, dropped, set.WorkoutExerciseID)
	}
}

func TestReconcileAllNewPayloadReplacesTree(t *testing.T) {
	f := newWorkoutFixture(t)
	detail := f.createWorkout(t, benchWithSets(f.bench, 0), benchWithSets(f.squat, 1))
	oldIDs := []primitive.ObjectID{detail.WorkoutExercises[0].ID, detail.WorkoutExercises[1].ID}

	// No entry carries an id, so nothing claims the existing rows and
	// the whole tree is replaced. Clients who meant to append must
	// resubmit the existing entries with their ids.
	got, err := f.svc.UpdateWorkout(context.Background(), f.userID, detail.ID, UpdateWorkoutInput{
		WorkoutExercises: []WorkoutExerciseInput{
			{ExerciseID: f.running, Order: 0, Sets: []ExerciseSetInput{{SetNumber: 1, Duration: intPtr(20)}}},
		},
	})
	require.NoError(t, err)
	require.Len(t, got.WorkoutExercises, 1)
	require.Equal(t, f.running, got.WorkoutExercises[0].ExerciseID)
	require.NotContains(t, oldIDs, got.WorkoutExercises[0].ID)

	require.Len(t, f.store.exercises, 1)
	for _, old := range oldIDs {
		_, exists := f.store.exercises[old]
		require.False(t, exists)
	}
	require.Len(t, f.store.sets, 1)
	require.Equal(t, got.WorkoutExercises[0].ID, got.WorkoutExercises[0].Sets[0].WorkoutExerciseID)
}

func TestReconcileClaimsCreatesAndSweepsInOnePayload(t *testing.T) {
	f := newWorkoutFixture(t)
	detail := f.createWorkout(t, benchWithSets(f.bench, 0), WorkoutExerciseInput{ExerciseID: f.squat, Order: 1})
	swept := detail.WorkoutExercises[0].ID // bench, has two sets
	claimed := detail.WorkoutExercises[1].ID

	got, err := f.svc.UpdateWorkout(context.Background(), f.userID, detail.ID, UpdateWorkoutInput{
		WorkoutExercises: []WorkoutExerciseInput{
			{ID: &claimed, ExerciseID: f.squat, Order: 0},
			{ExerciseID: f.running, Order: 1, Notes: "new"},
		},
	})
	require.NoError(t, err)
	require.Len(t, got.WorkoutExercises, 2)

	// The claimed row keeps its identity and moves to the front.
	require.Equal(t, claimed, got.WorkoutExercises[0].ID)
	require.Equal(t, 0, got.WorkoutExercises[0].Order)

	// The id-less entry becomes a fresh row.
	created := got.WorkoutExercises[1]
	require.NotEqual(t, swept, created.ID)
	require.NotEqual(t, claimed, created.ID)
	require.Equal(t, f.running, created.ExerciseID)
	require.Equal(t, "new", created.Notes)

	// The omitted row is swept along with its sets.
	_, exists := f.store.exercises[swept]
	require.False(t, exists)
	for _, set := range f.store.sets {
		require.NotEqual(t, swept, set.WorkoutExerciseID)
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	f := newWorkoutFixture(t)
	detail := f.createWorkout(t, benchWithSets(f.bench, 0))
	weID := detail.WorkoutExercises[0].ID
	set1 := detail.WorkoutExercises[0].Sets[0].ID
	set2 := detail.WorkoutExercises[0].Sets[1].ID

	payload := UpdateWorkoutInput{
		WorkoutExercises: []WorkoutExerciseInput{{
			ID:         &weID,
			ExerciseID: f.bench,
			Order:      0,
			Sets: []ExerciseSetInput{
				{ID: &set1, SetNumber: 1, Weight: floatPtr(60), Reps: intPtr(10)},
				{ID: &set2, SetNumber: 2, Weight: floatPtr(65), Reps: intPtr(8)},
			},
		}},
	}

	first, err := f.svc.UpdateWorkout(context.Background(), f.userID, detail.ID, payload)
	require.NoError(t, err)
	second, err := f.svc.UpdateWorkout(context.Background(), f.userID, detail.ID, payload)
	require.NoError(t, err)

	require.Equal(t, len(first.WorkoutExercises), len(second.WorkoutExercises))
	require.Equal(t, first.WorkoutExercises[0].ID, second.WorkoutExercises[0].ID)
	require.Equal(t, first.WorkoutExercises[0].Sets[0].ID, second.WorkoutExercises[0].Sets[0].ID)
	require.Equal(t, first.WorkoutExercises[0].Sets[1].ID, second.WorkoutExercises[0].Sets[1].ID)
	require.Len(t, f.store.exercises, 1)
	require.Len(t, f.store.sets, 2)
}

func TestReconcileEmptySetListLeavesSetsUntouched(t *testing.T) {
	f := newWorkoutFixture(t)
	detail := f.createWorkout(t, benchWithSets(f.bench, 0))
	weID := detail.WorkoutExercises[0].ID

	got, err := f.svc.UpdateWorkout(context.Background(), f.userID, detail.ID, UpdateWorkoutInput{
		WorkoutExercises: []WorkoutExerciseInput{{
			ID:         &weID,
			ExerciseID: f.bench,
			Order:      0,
			Sets:       []ExerciseSetInput{},
		}},
	})
	require.NoError(t, err)
	require.Len(t, got.WorkoutExercises[0].Sets, 2)
}

func TestReconcileUnknownCatalogExerciseRollsBackEverything(t *testing.T) {
	f := newWorkoutFixture(t)
	detail := f.createWorkout(t, benchWithSets(f.bench, 0))
	weID := detail.WorkoutExercises[0].ID
	missing := primitive.NewObjectID()

	before := f.store.snapshot()

	_, err := f.svc.UpdateWorkout(context.Background(), f.userID, detail.ID, UpdateWorkoutInput{
		WorkoutExercises: []WorkoutExerciseInput{
			{ID: &weID, ExerciseID: f.bench, Order: 0, Notes: "should not stick"},
			{ExerciseID: missing, Order: 1},
		},
	})
	require.ErrorIs(t, err, ErrCatalogExerciseNotFound)
	require.Contains(t, err.Error(), missing.Hex())

	// The first entry was valid and processed before the failure, but the
	// transaction rollback must discard it too.
	require.Equal(t, before.exercises[weID].Notes, f.store.exercises[weID].Notes)
	require.Equal(t, len(before.exercises), len(f.store.exercises))
	require.Equal(t, len(before.sets), len(f.store.sets))
}

func TestReconcileReordersSurvivingRows(t *testing.T) {
	f := newWorkoutFixture(t)
	detail := f.createWorkout(t,
		WorkoutExerciseInput{ExerciseID: f.bench, Order: 0},
		WorkoutExerciseInput{ExerciseID: f.squat, Order: 1},
	)
	benchRow := detail.WorkoutExercises[0].ID
	squatRow := detail.WorkoutExercises[1].ID

	got, err := f.svc.UpdateWorkout(context.Background(), f.userID, detail.ID, UpdateWorkoutInput{
		WorkoutExercises: []WorkoutExerciseInput{
			{ID: &squatRow, ExerciseID: f.squat, Order: 0},
			{ID: &benchRow, ExerciseID: f.bench, Order: 1},
		},
	})
	require.NoError(t, err)
	require.Equal(t, squatRow, got.WorkoutExercises[0].ID)
	require.Equal(t, benchRow, got.WorkoutExercises[1].ID)
}

func TestUpdateWorkoutDeniedForNonOwnerTouchesNothing(t *testing.T) {
	f := newWorkoutFixture(t)
	detail := f.createWorkout(t, benchWithSets(f.bench, 0))

	_, err := f.svc.UpdateWorkout(context.Background(), primitive.NewObjectID(), detail.ID, UpdateWorkoutInput{
		WorkoutExercises: []WorkoutExerciseInput{},
	})
	require.ErrorIs(t, err, ErrWorkoutAccessDenied)
	require.Len(t, f.store.exercises, 1)
	require.Len(t, f.store.sets, 2)
}

func TestUpdateWorkoutNotFound(t *testing.T) {
	f := newWorkoutFixture(t)

	_, err := f.svc.UpdateWorkout(context.Background(), f.userID, primitive.NewObjectID(), UpdateWorkoutInput{})
	require.ErrorIs(t, err, ErrWorkoutNotFound)
}

func TestUpdateWorkoutCountsOneReconciliationAcrossRetries(t *testing.T) {
	store := newFakeStore()
	catalog := &fakeCatalogRepo{store: store}
	benchID, err := catalog.Create(context.Background(), &domain.Exercise{
		Name:               "Bench Press",
		PrimaryMuscleGroup: domain.MuscleGroupChest,
		Type:               domain.ExerciseTypeStrength,
		IsActive:           true,
	})
	require.NoError(t, err)

	tx := &retryingTxManager{store: store}
	svc := NewWorkoutService(
		&fakeWorkoutRepo{store: store},
		&fakeWorkoutExerciseRepo{store: store},
		&fakeExerciseSetRepo{store: store},
		catalog,
		tx,
	)

	userID := primitive.NewObjectID()
	detail, err := svc.CreateWorkout(context.Background(), userID, CreateWorkoutInput{
		Name:          "Push Day",
		ScheduledDate: time.Now(),
	})
	require.NoError(t, err)

	before := reconciliationCount(t, "success")
	_, err = svc.UpdateWorkout(context.Background(), userID, detail.ID, UpdateWorkoutInput{
		WorkoutExercises: []WorkoutExerciseInput{{ExerciseID: benchID, Order: 0}},
	})
	require.NoError(t, err)

	// The update's transaction body ran twice, but the logical
	// reconciliation counts once.
	require.GreaterOrEqual(t, tx.attempts, 2)
	require.Equal(t, before+1, reconciliationCount(t, "success"))
}

func reconciliationCount(t *testing.T, outcome string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "fitness_tracker_workouts_reconciliations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "outcome" && label.GetValue() == outcome {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

// --- delete / completion ---

func TestDeleteWorkoutCascades(t *testing.T) {
	f := newWorkoutFixture(t)
	detail := f.createWorkout(t, benchWithSets(f.bench, 0), benchWithSets(f.squat, 1))

	require.NoError(t, f.svc.DeleteWorkout(context.Background(), f.userID, detail.ID))
	require.Empty(t, f.store.workouts)
	require.Empty(t, f.store.exercises)
	require.Empty(t, f.store.sets)
}

func TestCompleteWorkoutCascadesToChildren(t *testing.T) {
	f := newWorkoutFixture(t)
	detail := f.createWorkout(t, benchWithSets(f.bench, 0))

	got, err := f.svc.CompleteWorkout(context.Background(), f.userID, detail.ID)
	require.NoError(t, err)
	require.True(t, got.IsCompleted)
	require.NotNil(t, got.CompletedDate)
	require.True(t, got.WorkoutExercises[0].IsCompleted)
	for _, set := range got.WorkoutExercises[0].Sets {
		require.True(t, set.IsCompleted)
	}
}

func TestReopenWorkoutClearsCompletion(t *testing.T) {
	f := newWorkoutFixture(t)
	detail := f.createWorkout(t, benchWithSets(f.bench, 0))

	_, err := f.svc.CompleteWorkout(context.Background(), f.userID, detail.ID)
	require.NoError(t, err)

	got, err := f.svc.ReopenWorkout(context.Background(), f.userID, detail.ID)
	require.NoError(t, err)
	require.False(t, got.IsCompleted)
	require.Nil(t, got.CompletedDate)
	require.False(t, got.WorkoutExercises[0].IsCompleted)
	for _, set := range got.WorkoutExercises[0].Sets {
		require.False(t, set.IsCompleted)
	}
}

// --- listing ---

func TestListWorkoutsOmitsSets(t *testing.T) {
	f := newWorkoutFixture(t)
	f.createWorkout(t, benchWithSets(f.bench, 0))

	details, total, err := f.svc.ListWorkouts(context.Background(), f.userID, repository.WorkoutFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, details, 1)
	require.Len(t, details[0].WorkoutExercises, 1)
	require.NotNil(t, details[0].WorkoutExercises[0].Exercise)
	require.Empty(t, details[0].WorkoutExercises[0].Sets)
}
