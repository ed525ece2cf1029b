package models

// Roles issued by the backend. Anything else is preserved verbatim and gets
// no gated capabilities.
const (
	RoleAdmin = "ADMIN"
	RoleMD    = "MD"
	RoleDMD   = "DMD"
	RoleNurse = "NURSE"
	RoleUser  = "USER"
)

// Auth
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Session is the identity decoded from the current credential. The payload is
// never signature-verified client-side; the backend re-checks every call.
type Session struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Patients
type PatientSummary struct {
	ID            int    `json:"id"`
	StudentNumber string `json:"studentNumber,omitempty"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	MiddleInitial string `json:"middleInitial,omitempty"`
	Gender        string `json:"gender"`
	Status        string `json:"status"`
	Category      string `json:"category,omitempty"`
}

type Patient struct {
	ID            int    `json:"id,omitempty"`
	StudentNumber string `json:"studentNumber,omitempty"`
	LastName      string `json:"lastName"`
	FirstName     string `json:"firstName"`
	MiddleInitial string `json:"middleInitial,omitempty"`
	Status        string `json:"status"`
	Gender        string `json:"gender"`
	BirthDate     string `json:"birthDate,omitempty"`
	HeightCm      string `json:"heightCm,omitempty"`
	WeightKg      string `json:"weightKg,omitempty"`
	BMI           string `json:"bmi,omitempty"`
	Category      string `json:"category,omitempty"`
	MedicalDone   string `json:"medicalDone,omitempty"`
	DentalDone    string `json:"dentalDone,omitempty"`
	ContactNumber string `json:"contactNumber,omitempty"`

	HealthExamForm        string `json:"healthExamForm,omitempty"`
	MedicalDentalInfo     string `json:"medicalDentalInfoSheet,omitempty"`
	DentalChart           string `json:"dentalChart,omitempty"`
	SpecialMedicalCond    string `json:"specialMedicalCondition,omitempty"`
	CommunicableDisease   string `json:"communicableDisease,omitempty"`
	EmergencyContactName  string `json:"emergencyContactName,omitempty"`
	EmergencyContactRel   string `json:"emergencyContactRelationship,omitempty"`
	EmergencyContactPhone string `json:"emergencyContactNumber,omitempty"`
	Remarks               string `json:"remarks,omitempty"`
}

// Visits
const (
	VisitTypeMedical = "MEDICAL"
	VisitTypeDental  = "DENTAL"
)

// PatientRef is the nested patient name the unified visit list carries.
type PatientRef struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// VisitSummary is one row of the unified visit list, tagged by VisitType.
type VisitSummary struct {
	ID             int         `json:"id"`
	VisitDate      string      `json:"visitDate"`
	ChiefComplaint string      `json:"chiefComplaint"`
	VisitType      string      `json:"visitType"`
	Diagnosis      string      `json:"diagnosis,omitempty"`
	Patient        *PatientRef `json:"patient,omitempty"`
}

// VisitEnvelope is the part shared by both visit variants.
type VisitEnvelope struct {
	ID              int    `json:"id,omitempty"`
	PatientID       int    `json:"patientId"`
	VisitDate       string `json:"visitDate"`
	ChiefComplaint  string `json:"chiefComplaint"`
	Temperature     string `json:"temperature,omitempty"`
	BloodPressure   string `json:"bloodPressure,omitempty"`
	PulseRate       string `json:"pulseRate,omitempty"`
	RespiratoryRate string `json:"respiratoryRate,omitempty"`
	SpO2            string `json:"spo2,omitempty"`
	History         string `json:"history,omitempty"`
	ExamFindings    string `json:"physicalExamFindings,omitempty"`
	Diagnosis       string `json:"diagnosis,omitempty"`
	Plan            string `json:"plan,omitempty"`
	Treatment       string `json:"treatment,omitempty"`
}

type MedicalVisit struct {
	VisitEnvelope

	Symptoms     string `json:"symptoms,omitempty"`
	HAMA         string `json:"hama,omitempty"`
	ReferralForm string `json:"referralForm,omitempty"`
	NurseNotes   string `json:"nurseNotes,omitempty"`

	// Server-side path of the uploaded chart image, if any.
	MedicalChartImage string `json:"medicalChartImage,omitempty"`
}

type DentalVisit struct {
	VisitEnvelope

	DiagnosticTestResult string      `json:"diagnosticTestResult,omitempty"`
	ToothStatus          ToothStatus `json:"toothStatus,omitempty"`

	DentalChartImage    string `json:"dentalChartImage,omitempty"`
	DiagnosticTestImage string `json:"diagnosticTestImage,omitempty"`
}

// ToothStatus maps FDI tooth codes ("18".."48") to a mark. Codes absent from
// the map are unset.
type ToothStatus map[string]ToothMark

type ToothMark string

const (
	ToothCaries     ToothMark = "C"
	ToothExtraction ToothMark = "X"
	ToothNoCaries   ToothMark = "V"
	ToothUnset      ToothMark = ""
)

// Mark returns the recorded mark for a tooth code, ToothUnset when absent.
func (t ToothStatus) Mark(code string) ToothMark {
	if t == nil {
		return ToothUnset
	}
	return t[code]
}

// Users (ADMIN-only resource family)
type UserAccount struct {
	ID       int    `json:"id,omitempty"`
	Username string `json:"username"`
	Role     string `json:"role"`
	// Write-only: accepted on create/update, never returned by reads.
	// Empty on update means "no change".
	Password string `json:"password,omitempty"`
}

// Audit
const (
	AuditCreate = "CREATE"
	AuditUpdate = "UPDATE"
	AuditDelete = "DELETE"
)

type AuditLogEntry struct {
	ID         int    `json:"id"`
	Action     string `json:"action"`
	Username   string `json:"username"`
	Timestamp  string `json:"timestamp"`
	EntityName string `json:"entityName,omitempty"`
	RecordID   int    `json:"recordId,omitempty"`
	Details    string `json:"details,omitempty"`
}

// Dashboard aggregates
type KPIs struct {
	TodaysVisits    int `json:"todaysVisits"`
	VisitsThisMonth int `json:"visitsThisMonth"`
}

type DiagnosisStat struct {
	Diagnosis string `json:"diagnosis"`
	Count     int    `json:"count"`
}

type VisitTrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
