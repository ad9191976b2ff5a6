package record

// Detail page layout
const (
	DetailContainer     = "#CFI_DataContent"
	DocumentsContainer  = "#CFI_OnlineDocsContent"
	VotesContainer      = "#CFI_VotesContent"
	ActivitiesContainer = "#CFI_FileActivitiesContent"
	AttachmentContainer = "#CFI_AttachmentsContent"

	sectionSel = ".section"
	leftSel    = ".left"
	rightSel   = ".right"
)

// Field titles with a meaning of their own
const (
	fileNumberTitle  = "Council File"
	titleTitle       = "Title"
	meetingDateTitle = "Meeting Date"
	meetingTypeTitle = "Meeting Type"
	voteActionTitle  = "Vote Action"
	voteGivenTitle   = "Vote Given"
)
