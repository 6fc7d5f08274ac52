package healthkit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const export = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE HealthData [
<!ELEMENT HealthData (ExportDate,Me,(Record|Workout)*)>
]>
<HealthData locale="it_IT">
 <ExportDate value="2025-03-05 20:00:00 +0100"/>
 <Me HKCharacteristicTypeIdentifierBiologicalSex="HKBiologicalSexFemale"/>
 <Record type="HKQuantityTypeIdentifierStepCount" value="1200" startDate="2025-03-01 08:00:00 +0100"/>
 <Workout workoutActivityType="HKWorkoutActivityTypeRunning" duration="32.5" durationUnit="min"
   totalDistance="5.2" totalDistanceUnit="km" totalEnergyBurned="310" totalEnergyBurnedUnit="kcal"
   sourceName="Apple Watch" startDate="2025-03-01 07:00:00 +0100" endDate="2025-03-01 07:32:30 +0100">
  <MetadataEntry key="HKIndoorWorkout" value="0"/>
 </Workout>
 <Workout workoutActivityType="HKWorkoutActivityTypeTraditionalStrengthTraining" duration="1" durationUnit="hr"
   sourceName="Apple Watch" startDate="2025-03-02 18:00:00 +0100" endDate="2025-03-02 19:00:00 +0100">
  <WorkoutStatistics type="HKQuantityTypeIdentifierActiveEnergyBurned" sum="1046" unit="kJ"/>
 </Workout>
 <Workout workoutActivityType="HKWorkoutActivityTypeCycling" duration="2700" durationUnit="s"
   startDate="2025-03-03 17:00:00 +0100">
  <WorkoutStatistics type="HKQuantityTypeIdentifierDistanceCycling" sum="10" unit="mi"/>
 </Workout>
</HealthData>`

func TestParseWorkouts(t *testing.T) {
	workouts, err := Parse([]byte(export))
	require.NoError(t, err)
	require.Len(t, workouts, 3)

	run := workouts[0]
	require.Equal(t, "running", run.Type)
	require.Equal(t, "2025-03-01T07:00:00+01:00", run.Start)
	require.InDelta(t, 32.5, run.DurationMin, 1e-9)
	require.NotNil(t, run.DistanceKm)
	require.InDelta(t, 5.2, *run.DistanceKm, 1e-9)
	require.InDelta(t, 310, *run.Calories, 1e-9)
	require.Equal(t, "Apple Watch", run.SourceName)

	gym := workouts[1]
	require.Equal(t, "traditional_strength_training", gym.Type)
	require.InDelta(t, 60, gym.DurationMin, 1e-9)
	require.Nil(t, gym.DistanceKm)
	require.InDelta(t, 250, *gym.Calories, 0.01)

	ride := workouts[2]
	require.InDelta(t, 45, ride.DurationMin, 1e-9)
	require.InDelta(t, 16.09, *ride.DistanceKm, 0.01)
	require.Nil(t, ride.Calories)
}

func TestRecords(t *testing.T) {
	workouts, err := Parse([]byte(export))
	require.NoError(t, err)

	recs := Records(workouts)
	require.Len(t, recs, 3)
	require.Equal(t, "32.5", recs[0]["duration_min"])
	require.Equal(t, "5.2", recs[0]["distance_km"])
	require.Equal(t, "", recs[1]["distance_km"])
	require.Equal(t, "16.09", recs[2]["distance_km"])
	require.Equal(t, "", recs[2]["end_date"])
	for _, c := range Columns {
		require.Contains(t, recs[0], c)
	}
}

func TestParseRejectsBrokenExports(t *testing.T) {
	cases := map[string]string{
		"truncated":    `<HealthData><Workout duration="10"`,
		"wrong root":   `<gpx><Workout duration="10"/></gpx>`,
		"bad duration": `<HealthData><Workout duration="long"/></HealthData>`,
		"bad distance": `<HealthData><Workout duration="10" totalDistance="-3"/></HealthData>`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.Error(t, err)
		})
	}

	_, err := Parse([]byte(`<HealthData><Record type="x" value="1"/></HealthData>`))
	require.ErrorIs(t, err, ErrNoWorkouts)
}

func TestActivityName(t *testing.T) {
	require.Equal(t, "hiit", activityName("HKWorkoutActivityTypeHIIT"))
	require.Equal(t, "swimming", activityName("HKWorkoutActivityTypeSwimming"))
	require.Equal(t, "unknown", activityName(""))
}
