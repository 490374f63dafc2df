package blend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blendql/internal/database"
	"blendql/internal/domain"
	"blendql/internal/sqlbuilder"
)

func col(name string) sqlbuilder.Term { return sqlbuilder.Column{Name: name} }

func mustDataset(t *testing.T, table string, fields ...*Field) *Dataset {
	t.Helper()
	d, err := NewDataset(table, database.Generic{}, fields...)
	require.NoError(t, err)
	return d
}

func TestCompileDatasetQuery(t *testing.T) {
	ds := mustDataset(t, "politics.politician",
		Dimension("state", "State", col("state"), Text),
		Metric("votes", "Votes", sqlbuilder.Raw{Text: `SUM("votes")`}, Number),
	)

	c, err := ds.Query().
		Dimension(ds.MustField("state")).
		Select(ds.MustField("votes")).
		Compile()
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT "state" "$state",SUM("votes") "$votes" `+
			`FROM "politics"."politician" `+
			`GROUP BY "$state" ORDER BY "$state"`,
		c.Statement)
	assert.Equal(t, []string{"$state", "$votes"}, c.Columns)
}

func TestCompileDatasetQueryWithoutDimensions(t *testing.T) {
	ds := mustDataset(t, "test0",
		Metric("votes", "Votes", sqlbuilder.Raw{Text: `SUM("votes")`}, Number),
	)

	c, err := ds.Query().Select(ds.MustField("votes")).Compile()
	require.NoError(t, err)

	assert.Equal(t, `SELECT SUM("votes") "$votes" FROM "test0"`, c.Statement)
}

func TestCompileBlendWithSharedAliasUsesPrimaryFieldAndStillReachesSecondaryLeaf(t *testing.T) {
	primary := mustDataset(t, "test0",
		Dimension("timestamp", "Timestamp", col("timestamp"), Date),
		Metric("metric", "Metric", col("metric"), Number),
	)
	secondary := mustDataset(t, "test1",
		Dimension("timestamp", "Timestamp", col("timestamp"), Date),
		Metric("metric", "Metric", col("metric"), Number),
	)

	b, err := primary.Blend(secondary).OnDimensions().ExtraFields(
		Computed("metric_share", "Metric Share",
			Div(primary.MustField("metric"), secondary.MustField("metric")), Number),
	)
	require.NoError(t, err)

	c, err := b.Query().
		Dimension(b.MustField("timestamp")).
		Select(b.MustField("metric_share")).
		Compile()
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT `+
			`"sq0"."$timestamp" "$timestamp",`+
			`"sq0"."$metric"/"sq1"."$metric" "$metric_share" `+
			`FROM (`+
			`SELECT "timestamp" "$timestamp","metric" "$metric" `+
			`FROM "test0" GROUP BY "$timestamp" ORDER BY "$timestamp"`+
			`) "sq0" `+
			`JOIN (`+
			`SELECT "timestamp" "$timestamp","metric" "$metric" `+
			`FROM "test1" GROUP BY "$timestamp" ORDER BY "$timestamp"`+
			`) "sq1" ON "sq0"."$timestamp"="sq1"."$timestamp" `+
			`ORDER BY "$timestamp"`,
		c.Statement)
	assert.Equal(t, []string{"$timestamp", "$metric_share"}, c.Columns)
}

func TestCompileBlendWithEmptyMappingRendersCrossTerm(t *testing.T) {
	primary := mustDataset(t, "test0",
		Dimension("timestamp", "Timestamp", col("timestamp"), Date),
		Metric("metric1", "Metric1", col("metric"), Number),
	)
	secondary := mustDataset(t, "test1",
		Metric("metric2", "Metric2", col("metric"), Number),
	)

	b, err := primary.Blend(secondary).On()
	require.NoError(t, err)

	c, err := b.Query().
		Dimension(b.MustField("timestamp")).
		Select(b.MustField("metric1"), b.MustField("metric2")).
		Compile()
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT `+
			`"sq0"."$timestamp" "$timestamp",`+
			`"sq0"."$metric1" "$metric1",`+
			`"sq1"."$metric2" "$metric2" `+
			`FROM (`+
			`SELECT "timestamp" "$timestamp","metric" "$metric1" `+
			`FROM "test0" GROUP BY "$timestamp" ORDER BY "$timestamp"`+
			`) "sq0",`+
			`(`+
			`SELECT "metric" "$metric2" FROM "test1"`+
			`) "sq1" `+
			`ORDER BY "$timestamp"`,
		c.Statement)
}

func TestCompileBlendExcludesConflictingUnmappedFieldsFromSubqueries(t *testing.T) {
	primary := mustDataset(t, "test0",
		Dimension("timestamp", "Timestamp", col("timestamp"), Date),
		Dimension("account", "Account", col("account"), Number),
		Metric("metric0", "Metric0", col("metric"), Number),
	)
	secondary := mustDataset(t, "test1",
		Dimension("timestamp", "Timestamp", col("timestamp"), Date),
		Dimension("account", "Account", col("account"), Number),
		Metric("metric1", "Metric1", col("metric"), Number),
	)

	b, err := primary.Blend(secondary).On(MappedPair{
		Primary:   primary.MustField("timestamp"),
		Secondary: secondary.MustField("timestamp"),
	})
	require.NoError(t, err)

	c, err := b.Query().
		Dimension(b.MustField("timestamp"), b.MustField("account")).
		Select(b.MustField("metric0"), b.MustField("metric1")).
		Compile()
	require.NoError(t, err)

	// The secondary's "account" collides with the primary's and is not part of
	// the join mapping, so its subquery must not select it.
	assert.Equal(t,
		`SELECT `+
			`"sq0"."$timestamp" "$timestamp",`+
			`"sq0"."$account" "$account",`+
			`"sq0"."$metric0" "$metric0",`+
			`"sq1"."$metric1" "$metric1" `+
			`FROM (`+
			`SELECT "timestamp" "$timestamp","account" "$account","metric" "$metric0" `+
			`FROM "test0" GROUP BY "$timestamp","$account" ORDER BY "$timestamp","$account"`+
			`) "sq0" `+
			`JOIN (`+
			`SELECT "timestamp" "$timestamp","metric" "$metric1" `+
			`FROM "test1" GROUP BY "$timestamp" ORDER BY "$timestamp"`+
			`) "sq1" ON "sq0"."$timestamp"="sq1"."$timestamp" `+
			`ORDER BY "$timestamp","$account"`,
		c.Statement)
}

func TestCompileBlendMappedFieldsWithDifferentAliasesKeepBothAliases(t *testing.T) {
	primary := mustDataset(t, "test0",
		Dimension("a", "A", col("a"), Number),
		Metric("metric0", "Metric0", col("metric"), Number),
	)
	secondary := mustDataset(t, "test1",
		Dimension("b", "B", col("b"), Number),
		Metric("metric1", "Metric1", col("metric"), Number),
	)

	b, err := primary.Blend(secondary).On(MappedPair{
		Primary:   primary.MustField("a"),
		Secondary: secondary.MustField("b"),
	})
	require.NoError(t, err)

	c, err := b.Query().
		Dimension(b.MustField("a")).
		Select(b.MustField("metric0"), b.MustField("metric1")).
		Compile()
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT `+
			`"sq0"."$a" "$a",`+
			`"sq0"."$metric0" "$metric0",`+
			`"sq1"."$metric1" "$metric1" `+
			`FROM (`+
			`SELECT "a" "$a","metric" "$metric0" `+
			`FROM "test0" GROUP BY "$a" ORDER BY "$a"`+
			`) "sq0" `+
			`JOIN (`+
			`SELECT "b" "$b","metric" "$metric1" `+
			`FROM "test1" GROUP BY "$b" ORDER BY "$b"`+
			`) "sq1" ON "sq0"."$a"="sq1"."$b" `+
			`ORDER BY "$a"`,
		c.Statement)
}

// fourWayBlend builds a chained blend of four datasets sharing a timestamp
// dimension, each contributing one distinct metric.
func fourWayBlend(t *testing.T) (*Blend, []*Dataset) {
	t.Helper()
	tables := []string{"test0", "test1", "test2", "test3"}
	metrics := []string{"metric0", "metric1", "metric2", "metric3"}
	datasets := make([]*Dataset, 4)
	for i := range datasets {
		datasets[i] = mustDataset(t, tables[i],
			Dimension("timestamp", "Timestamp", col("timestamp"), Date),
			Metric(metrics[i], "Metric", col("metric"), Number),
		)
	}
	b := datasets[0].Blend(datasets[1]).OnDimensions().
		Blend(datasets[2]).OnDimensions().
		Blend(datasets[3]).OnDimensions()
	return b, datasets
}

const fourWaySQL = `SELECT ` +
	`"sq0"."$timestamp" "$timestamp",` +
	`"sq0"."$metric0"/"sq1"."$metric1"/"sq2"."$metric2"/"sq3"."$metric3" "$metric_share" ` +
	`FROM (` +
	`SELECT "timestamp" "$timestamp","metric" "$metric0" ` +
	`FROM "test0" GROUP BY "$timestamp" ORDER BY "$timestamp"` +
	`) "sq0" ` +
	`JOIN (` +
	`SELECT "timestamp" "$timestamp","metric" "$metric1" ` +
	`FROM "test1" GROUP BY "$timestamp" ORDER BY "$timestamp"` +
	`) "sq1" ON "sq0"."$timestamp"="sq1"."$timestamp" ` +
	`JOIN (` +
	`SELECT "timestamp" "$timestamp","metric" "$metric2" ` +
	`FROM "test2" GROUP BY "$timestamp" ORDER BY "$timestamp"` +
	`) "sq2" ON "sq0"."$timestamp"="sq2"."$timestamp" ` +
	`JOIN (` +
	`SELECT "timestamp" "$timestamp","metric" "$metric3" ` +
	`FROM "test3" GROUP BY "$timestamp" ORDER BY "$timestamp"` +
	`) "sq3" ON "sq0"."$timestamp"="sq3"."$timestamp" ` +
	`ORDER BY "$timestamp"`

func TestCompileChainedBlendJoinsEverySecondaryAgainstThePrimarySubquery(t *testing.T) {
	b, datasets := fourWayBlend(t)

	b, err := b.ExtraFields(Computed("metric_share", "Metric Share",
		Div(Div(Div(
			datasets[0].MustField("metric0"),
			datasets[1].MustField("metric1")),
			datasets[2].MustField("metric2")),
			datasets[3].MustField("metric3")),
		Number))
	require.NoError(t, err)

	c, err := b.Query().
		Dimension(b.MustField("timestamp")).
		Select(b.MustField("metric_share")).
		Compile()
	require.NoError(t, err)
	assert.Equal(t, fourWaySQL, c.Statement)
}

func TestCompileChainedBlendResolvesNamespaceFieldsToTheirOwners(t *testing.T) {
	b, _ := fourWayBlend(t)

	// Same expression phrased through the unified namespace instead of the
	// underlying datasets.
	b, err := b.ExtraFields(Computed("metric_share", "Metric Share",
		Div(Div(Div(
			b.MustField("metric0"),
			b.MustField("metric1")),
			b.MustField("metric2")),
			b.MustField("metric3")),
		Number))
	require.NoError(t, err)

	c, err := b.Query().
		Dimension(b.MustField("timestamp")).
		Select(b.MustField("metric_share")).
		Compile()
	require.NoError(t, err)
	assert.Equal(t, fourWaySQL, c.Statement)
}

func TestCompileInferredMappingWithNoSharedDimensionsDegradesToCrossTerm(t *testing.T) {
	primary := mustDataset(t, "test0",
		Dimension("timestamp", "Timestamp", col("timestamp"), Date),
		Metric("metric0", "Metric0", col("metric"), Number),
	)
	secondary := mustDataset(t, "test1",
		Dimension("region", "Region", col("region"), Text),
		Metric("metric1", "Metric1", col("metric"), Number),
	)

	b := primary.Blend(secondary).OnDimensions()

	c, err := b.Query().
		Dimension(b.MustField("timestamp")).
		Select(b.MustField("metric0"), b.MustField("metric1")).
		Compile()
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT `+
			`"sq0"."$timestamp" "$timestamp",`+
			`"sq0"."$metric0" "$metric0",`+
			`"sq1"."$metric1" "$metric1" `+
			`FROM (`+
			`SELECT "timestamp" "$timestamp","metric" "$metric0" `+
			`FROM "test0" GROUP BY "$timestamp" ORDER BY "$timestamp"`+
			`) "sq0",`+
			`(`+
			`SELECT "metric" "$metric1" FROM "test1"`+
			`) "sq1" `+
			`ORDER BY "$timestamp"`,
		c.Statement)
}

func TestCompileIsDeterministic(t *testing.T) {
	b, datasets := fourWayBlend(t)
	b, err := b.ExtraFields(Computed("metric_share", "Metric Share",
		Div(datasets[0].MustField("metric0"), datasets[1].MustField("metric1")), Number))
	require.NoError(t, err)

	build := func() string {
		c, err := b.Query().
			Dimension(b.MustField("timestamp")).
			Select(b.MustField("metric_share")).
			Compile()
		require.NoError(t, err)
		return c.Statement
	}

	first := build()
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, build())
	}
}

func TestCompileRepeatedFieldsAreDeduplicated(t *testing.T) {
	ds := mustDataset(t, "test0",
		Dimension("state", "State", col("state"), Text),
		Metric("votes", "Votes", sqlbuilder.Raw{Text: `SUM("votes")`}, Number),
	)

	c, err := ds.Query().
		Dimension(ds.MustField("state"), ds.MustField("state")).
		Select(ds.MustField("votes"), ds.MustField("votes")).
		Compile()
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT "state" "$state",SUM("votes") "$votes" `+
			`FROM "test0" GROUP BY "$state" ORDER BY "$state"`,
		c.Statement)
}

func TestCompileBlendDimensionAlsoRequestedAsFieldRendersOnce(t *testing.T) {
	primary := mustDataset(t, "test0",
		Dimension("timestamp", "Timestamp", col("timestamp"), Date),
		Metric("metric", "Metric", col("metric"), Number),
	)
	secondary := mustDataset(t, "test1",
		Dimension("timestamp", "Timestamp", col("timestamp"), Date),
	)

	b := primary.Blend(secondary).OnDimensions()

	c, err := b.Query().
		Dimension(b.MustField("timestamp")).
		Select(b.MustField("timestamp"), b.MustField("metric")).
		Compile()
	require.NoError(t, err)

	assert.Equal(t, []string{"$timestamp", "$metric"}, c.Columns)
	assert.Equal(t,
		`SELECT `+
			`"sq0"."$timestamp" "$timestamp",`+
			`"sq0"."$metric" "$metric" `+
			`FROM (`+
			`SELECT "timestamp" "$timestamp","metric" "$metric" `+
			`FROM "test0" GROUP BY "$timestamp" ORDER BY "$timestamp"`+
			`) "sq0" `+
			`JOIN (`+
			`SELECT "timestamp" "$timestamp" `+
			`FROM "test1" GROUP BY "$timestamp" ORDER BY "$timestamp"`+
			`) "sq1" ON "sq0"."$timestamp"="sq1"."$timestamp" `+
			`ORDER BY "$timestamp"`,
		c.Statement)
}

func TestCompileWithoutOutputFieldsFails(t *testing.T) {
	ds := mustDataset(t, "test0",
		Dimension("state", "State", col("state"), Text),
	)

	_, err := ds.Query().Dimension(ds.MustField("state")).Compile()

	var mre *domain.MetricRequiredError
	require.ErrorAs(t, err, &mre)
}

func TestCompileDatasetRejectsForeignFields(t *testing.T) {
	ds := mustDataset(t, "test0",
		Dimension("state", "State", col("state"), Text),
		Metric("votes", "Votes", col("votes"), Number),
	)
	other := mustDataset(t, "test1",
		Metric("wins", "Wins", col("wins"), Number),
	)

	_, err := ds.Query().
		Dimension(ds.MustField("state")).
		Select(other.MustField("wins")).
		Compile()

	var ffe *domain.ForeignFieldError
	require.ErrorAs(t, err, &ffe)
}

func TestCompileBlendRejectsFieldsFromOutsideTheBlend(t *testing.T) {
	primary := mustDataset(t, "test0",
		Dimension("timestamp", "Timestamp", col("timestamp"), Date),
		Metric("metric0", "Metric0", col("metric"), Number),
	)
	secondary := mustDataset(t, "test1",
		Dimension("timestamp", "Timestamp", col("timestamp"), Date),
		Metric("metric1", "Metric1", col("metric"), Number),
	)
	outsider := mustDataset(t, "test2",
		Metric("metric2", "Metric2", col("metric"), Number),
	)

	b := primary.Blend(secondary).OnDimensions()

	_, err := b.Query().
		Dimension(b.MustField("timestamp")).
		Select(outsider.MustField("metric2")).
		Compile()

	var ffe *domain.ForeignFieldError
	require.ErrorAs(t, err, &ffe)
}

func TestCompileBlendRejectsComputedDimension(t *testing.T) {
	primary := mustDataset(t, "test0",
		Dimension("timestamp", "Timestamp", col("timestamp"), Date),
		Metric("metric0", "Metric0", col("metric"), Number),
	)
	secondary := mustDataset(t, "test1",
		Dimension("timestamp", "Timestamp", col("timestamp"), Date),
		Metric("metric1", "Metric1", col("metric"), Number),
	)

	b, err := primary.Blend(secondary).OnDimensions().ExtraFields(
		Computed("share", "Share",
			Div(primary.MustField("metric0"), secondary.MustField("metric1")), Number),
	)
	require.NoError(t, err)

	_, err = b.Query().
		Dimension(b.MustField("share")).
		Select(b.MustField("metric0")).
		Compile()

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestCompileBlendRejectsComputedFieldWithForeignLeaves(t *testing.T) {
	primary := mustDataset(t, "test0",
		Dimension("timestamp", "Timestamp", col("timestamp"), Date),
		Metric("metric0", "Metric0", col("metric"), Number),
	)
	secondary := mustDataset(t, "test1",
		Dimension("timestamp", "Timestamp", col("timestamp"), Date),
		Metric("metric1", "Metric1", col("metric"), Number),
	)
	outsider := mustDataset(t, "test2",
		Metric("metric2", "Metric2", col("metric"), Number),
	)

	b := primary.Blend(secondary).OnDimensions()
	stray := Computed("stray", "Stray",
		Div(primary.MustField("metric0"), outsider.MustField("metric2")), Number)

	_, err := b.Query().
		Dimension(b.MustField("timestamp")).
		Select(stray).
		Compile()

	var ime *domain.InvalidMappingError
	require.ErrorAs(t, err, &ime)
}
