package queue

// JobType names the batch pipelines a worker can run.
type JobType string

const (
	// JobTypeIngestOrg pulls new Slack messages for every project in an org.
	JobTypeIngestOrg JobType = "ingest_org"
	// JobTypeSnapshotOrg snapshots tracker issues for every project in an org.
	JobTypeSnapshotOrg JobType = "snapshot_org"
	// JobTypeReportOrg generates and delivers weekly reports for an org.
	JobTypeReportOrg JobType = "report_org"
)

func (t JobType) Valid() bool {
	switch t {
	case JobTypeIngestOrg, JobTypeSnapshotOrg, JobTypeReportOrg:
		return true
	}
	return false
}
