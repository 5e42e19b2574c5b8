/* Copyright 2025 Flockbook Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package domain

// ContributionType is the kind of a financial contribution
type ContributionType string

// PaymentMethod is the means by which a contribution was given
type PaymentMethod string

// AttendanceStatus is the status of a member on a service date
type AttendanceStatus string

// TaskStatus is the progress of a task
type TaskStatus string

// TaskPriority is the urgency of a task
type TaskPriority string

// Role is the role of a user
type Role string

const (
	TypeTithe        ContributionType = "tithe"
	TypeOffering     ContributionType = "offering"
	TypeThanksgiving ContributionType = "thanksgiving"
	TypePledge       ContributionType = "pledge"
	TypeWelfare      ContributionType = "welfare"
	TypeMissions     ContributionType = "missions"
	TypeBuilding     ContributionType = "building"
	TypeOther        ContributionType = "other"
)

const (
	MethodCash      PaymentMethod = "cash"
	MethodCheck     PaymentMethod = "check"
	MethodCard      PaymentMethod = "card"
	MethodETransfer PaymentMethod = "e-transfer"
	MethodMobile    PaymentMethod = "mobile"
	MethodOther     PaymentMethod = "other"
)

const (
	AttendancePresent    AttendanceStatus = "present"
	AttendanceAbsent     AttendanceStatus = "absent"
	AttendanceSick       AttendanceStatus = "sick"
	AttendanceTravel     AttendanceStatus = "travel"
	AttendanceCatechumen AttendanceStatus = "catechumen"
)

const (
	TaskPending    TaskStatus = "Pending"
	TaskInProgress TaskStatus = "In Progress"
	TaskCompleted  TaskStatus = "Completed"
)

const (
	PriorityLow    TaskPriority = "Low"
	PriorityMedium TaskPriority = "Medium"
	PriorityHigh   TaskPriority = "High"
)

const (
	RoleAdmin        Role = "admin"
	RoleFinance      Role = "finance"
	RoleClassLeader  Role = "class-leader"
	RoleStatistician Role = "statistician"
)

// The canonical values of each enum, in display order
var (
	ContributionTypes  = []ContributionType{TypeTithe, TypeOffering, TypeThanksgiving, TypePledge, TypeWelfare, TypeMissions, TypeBuilding, TypeOther}
	PaymentMethods     = []PaymentMethod{MethodCash, MethodCheck, MethodCard, MethodETransfer, MethodMobile, MethodOther}
	AttendanceStatuses = []AttendanceStatus{AttendancePresent, AttendanceAbsent, AttendanceSick, AttendanceTravel, AttendanceCatechumen}
	TaskStatuses       = []TaskStatus{TaskPending, TaskInProgress, TaskCompleted}
	TaskPriorities     = []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh}
	Roles              = []Role{RoleAdmin, RoleFinance, RoleClassLeader, RoleStatistician}
)

// Alias tables are keyed by folded spellings. See Fold.
var (
	contributionTypeAliases = map[string]ContributionType{
		"tithe": TypeTithe, "tithes": TypeTithe, "tithing": TypeTithe, "tith": TypeTithe, "10percent": TypeTithe,
		"offering": TypeOffering, "offerings": TypeOffering, "offertory": TypeOffering, "sundayoffering": TypeOffering,
		"collection": TypeOffering, "plate": TypeOffering, "freewill": TypeOffering, "freewilloffering": TypeOffering,
		"thanksgiving": TypeThanksgiving, "thanks": TypeThanksgiving, "thanksgivingoffering": TypeThanksgiving,
		"thankoffering": TypeThanksgiving,
		"pledge": TypePledge, "pledges": TypePledge, "vow": TypePledge, "commitment": TypePledge,
		"welfare": TypeWelfare, "benevolence": TypeWelfare, "charity": TypeWelfare, "poorfund": TypeWelfare,
		"mission": TypeMissions, "missions": TypeMissions, "missionsoffering": TypeMissions, "outreach": TypeMissions,
		"evangelism": TypeMissions,
		"building": TypeBuilding, "buildingfund": TypeBuilding, "project": TypeBuilding, "projects": TypeBuilding,
		"development": TypeBuilding, "construction": TypeBuilding,
		"other": TypeOther, "misc": TypeOther, "miscellaneous": TypeOther, "general": TypeOther,
	}

	paymentMethodAliases = map[string]PaymentMethod{
		"cash": MethodCash, "notes": MethodCash, "coins": MethodCash, "currency": MethodCash,
		"check": MethodCheck, "cheque": MethodCheck, "chq": MethodCheck, "chk": MethodCheck, "bankcheck": MethodCheck,
		"card": MethodCard, "debit": MethodCard, "credit": MethodCard, "debitcard": MethodCard, "creditcard": MethodCard,
		"pos": MethodCard, "visa": MethodCard, "mastercard": MethodCard, "tap": MethodCard,
		"etransfer": MethodETransfer, "emt": MethodETransfer, "interac": MethodETransfer, "interacetransfer": MethodETransfer,
		"emailtransfer": MethodETransfer, "banktransfer": MethodETransfer, "transfer": MethodETransfer, "wire": MethodETransfer,
		"eft": MethodETransfer, "directdeposit": MethodETransfer, "online": MethodETransfer,
		"mobile": MethodMobile, "momo": MethodMobile, "mobilemoney": MethodMobile, "mpesa": MethodMobile,
		"mobilepayment": MethodMobile, "phone": MethodMobile, "paypal": MethodMobile,
		"other": MethodOther,
	}

	attendanceStatusAliases = map[string]AttendanceStatus{
		"present": AttendancePresent, "p": AttendancePresent, "here": AttendancePresent, "yes": AttendancePresent,
		"y": AttendancePresent, "attended": AttendancePresent, "in": AttendancePresent,
		"absent": AttendanceAbsent, "a": AttendanceAbsent, "no": AttendanceAbsent, "n": AttendanceAbsent,
		"missing": AttendanceAbsent, "away": AttendanceAbsent,
		"sick": AttendanceSick, "s": AttendanceSick, "ill": AttendanceSick, "unwell": AttendanceSick,
		"hospital": AttendanceSick, "hospitalized": AttendanceSick,
		"travel": AttendanceTravel, "t": AttendanceTravel, "traveling": AttendanceTravel, "travelling": AttendanceTravel,
		"traveled": AttendanceTravel, "travelled": AttendanceTravel, "outoftown": AttendanceTravel, "trip": AttendanceTravel,
		"catechumen": AttendanceCatechumen, "c": AttendanceCatechumen, "cat": AttendanceCatechumen,
		"catechism": AttendanceCatechumen, "catechumens": AttendanceCatechumen,
	}

	taskStatusAliases = map[string]TaskStatus{
		"pending": TaskPending, "todo": TaskPending, "open": TaskPending, "new": TaskPending, "notstarted": TaskPending,
		"inprogress": TaskInProgress, "progress": TaskInProgress, "doing": TaskInProgress, "started": TaskInProgress,
		"wip": TaskInProgress, "active": TaskInProgress, "ongoing": TaskInProgress,
		"completed": TaskCompleted, "complete": TaskCompleted, "done": TaskCompleted, "finished": TaskCompleted,
		"closed": TaskCompleted, "resolved": TaskCompleted,
	}

	taskPriorityAliases = map[string]TaskPriority{
		"low": PriorityLow, "l": PriorityLow, "minor": PriorityLow, "lowest": PriorityLow,
		"medium": PriorityMedium, "med": PriorityMedium, "m": PriorityMedium, "normal": PriorityMedium,
		"default": PriorityMedium, "moderate": PriorityMedium,
		"high": PriorityHigh, "h": PriorityHigh, "urgent": PriorityHigh, "critical": PriorityHigh,
		"important": PriorityHigh, "highest": PriorityHigh,
	}

	roleAliases = map[string]Role{
		"admin": RoleAdmin, "administrator": RoleAdmin, "superuser": RoleAdmin, "root": RoleAdmin,
		"finance": RoleFinance, "treasurer": RoleFinance, "accountant": RoleFinance, "financial": RoleFinance,
		"financesecretary": RoleFinance,
		"classleader": RoleClassLeader, "leader": RoleClassLeader, "cl": RoleClassLeader,
		"statistician": RoleStatistician, "stats": RoleStatistician, "statistics": RoleStatistician,
		"records": RoleStatistician,
	}
)

// ParseContributionType canonicalizes a contribution type. Unknown input is TypeOther.
func ParseContributionType(s string) ContributionType {
	return parseEnum(s, contributionTypeAliases, TypeOther)
}

// ParsePaymentMethod canonicalizes a payment method. Unknown input is MethodOther.
func ParsePaymentMethod(s string) PaymentMethod {
	return parseEnum(s, paymentMethodAliases, MethodOther)
}

// ParseAttendanceStatus canonicalizes an attendance status. Unknown input is AttendanceAbsent.
func ParseAttendanceStatus(s string) AttendanceStatus {
	return parseEnum(s, attendanceStatusAliases, AttendanceAbsent)
}

// ParseTaskStatus canonicalizes a task status. Unknown input is TaskPending.
func ParseTaskStatus(s string) TaskStatus {
	return parseEnum(s, taskStatusAliases, TaskPending)
}

// ParseTaskPriority canonicalizes a task priority. Unknown input is PriorityMedium.
func ParseTaskPriority(s string) TaskPriority {
	return parseEnum(s, taskPriorityAliases, PriorityMedium)
}

// ParseRole canonicalizes a role. Unknown input is RoleClassLeader, the role
// with the narrowest visibility.
func ParseRole(s string) Role {
	return parseEnum(s, roleAliases, RoleClassLeader)
}
