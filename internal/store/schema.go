package store

import (
	"math"

	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	tableStudents  = "students"
	tableTests     = "diagnostic_tests"
	tableResponses = "test_responses"
	tableBlockers  = "test_blockers"
	tableRoadmaps  = "roadmaps"
	tableLLMEvents = "llm_request_events"
	tableSnapshots = "session_snapshots"
)

// textSize makes a string column unbounded (TEXT) on every dialect.
const textSize = math.MaxInt32

var (
	StudentsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "owner_id", Type: field.TypeString},
		{Name: "name", Type: field.TypeString},
		{Name: "created_at", Type: field.TypeTime},
	}
	StudentsTable = &schema.Table{
		Name:       tableStudents,
		Columns:    StudentsColumns,
		PrimaryKey: []*schema.Column{StudentsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "student_owner_id", Columns: []*schema.Column{StudentsColumns[1]}},
		},
	}

	TestsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "owner_id", Type: field.TypeString},
		{Name: "stage", Type: field.TypeString},
		{Name: "age", Type: field.TypeInt},
		{Name: "severity", Type: field.TypeString, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
		{Name: "completed_at", Type: field.TypeTime, Nullable: true},
		{Name: "student_id", Type: field.TypeString},
	}
	TestsTable = &schema.Table{
		Name:       tableTests,
		Columns:    TestsColumns,
		PrimaryKey: []*schema.Column{TestsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "diagnostic_tests_students_tests",
				Columns:    []*schema.Column{TestsColumns[8]},
				RefColumns: []*schema.Column{StudentsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "diagnostictest_owner_id", Columns: []*schema.Column{TestsColumns[1]}},
			{Name: "diagnostictest_student_id", Columns: []*schema.Column{TestsColumns[8]}},
		},
	}

	ResponsesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "question_index", Type: field.TypeInt},
		{Name: "question_text", Type: field.TypeString, Size: textSize},
		{Name: "student_answer", Type: field.TypeString, Size: textSize},
		{Name: "correct_answer", Type: field.TypeString, Size: textSize},
		{Name: "is_correct", Type: field.TypeBool},
		{Name: "construct", Type: field.TypeString},
		{Name: "difficulty", Type: field.TypeInt},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "test_id", Type: field.TypeString},
	}
	ResponsesTable = &schema.Table{
		Name:       tableResponses,
		Columns:    ResponsesColumns,
		PrimaryKey: []*schema.Column{ResponsesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "test_responses_diagnostic_tests_responses",
				Columns:    []*schema.Column{ResponsesColumns[9]},
				RefColumns: []*schema.Column{TestsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "testresponse_test_id_question_index", Unique: true, Columns: []*schema.Column{ResponsesColumns[9], ResponsesColumns[1]}},
		},
	}

	BlockersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "construct", Type: field.TypeString},
		{Name: "error_count", Type: field.TypeInt},
		{Name: "confirmed", Type: field.TypeBool, Default: false},
		{Name: "test_id", Type: field.TypeString},
	}
	BlockersTable = &schema.Table{
		Name:       tableBlockers,
		Columns:    BlockersColumns,
		PrimaryKey: []*schema.Column{BlockersColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "test_blockers_diagnostic_tests_blockers",
				Columns:    []*schema.Column{BlockersColumns[4]},
				RefColumns: []*schema.Column{TestsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "testblocker_test_id_construct", Unique: true, Columns: []*schema.Column{BlockersColumns[4], BlockersColumns[1]}},
		},
	}

	RoadmapsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "payload", Type: field.TypeString, Size: textSize},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "test_id", Type: field.TypeString, Unique: true},
	}
	RoadmapsTable = &schema.Table{
		Name:       tableRoadmaps,
		Columns:    RoadmapsColumns,
		PrimaryKey: []*schema.Column{RoadmapsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "roadmaps_diagnostic_tests_roadmap",
				Columns:    []*schema.Column{RoadmapsColumns[3]},
				RefColumns: []*schema.Column{TestsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
	}

	LLMEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt},
		{Name: "output_tokens", Type: field.TypeInt},
		{Name: "latency_ms", Type: field.TypeInt64},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Size: textSize, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: textSize, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: textSize, Default: ""},
		{Name: "created_at", Type: field.TypeTime},
	}
	LLMEventsTable = &schema.Table{
		Name:       tableLLMEvents,
		Columns:    LLMEventsColumns,
		PrimaryKey: []*schema.Column{LLMEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmrequestevent_created_at", Columns: []*schema.Column{LLMEventsColumns[11]}},
		},
	}

	SnapshotsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "owner_id", Type: field.TypeString},
		{Name: "payload", Type: field.TypeString, Size: textSize},
		{Name: "expires_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	SnapshotsTable = &schema.Table{
		Name:       tableSnapshots,
		Columns:    SnapshotsColumns,
		PrimaryKey: []*schema.Column{SnapshotsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "sessionsnapshot_expires_at", Columns: []*schema.Column{SnapshotsColumns[3]}},
		},
	}

	// Tables holds every table, in dependency order.
	Tables = []*schema.Table{
		StudentsTable,
		TestsTable,
		ResponsesTable,
		BlockersTable,
		RoadmapsTable,
		LLMEventsTable,
		SnapshotsTable,
	}
)

func init() {
	TestsTable.ForeignKeys[0].RefTable = StudentsTable
	ResponsesTable.ForeignKeys[0].RefTable = TestsTable
	BlockersTable.ForeignKeys[0].RefTable = TestsTable
	RoadmapsTable.ForeignKeys[0].RefTable = TestsTable
}
