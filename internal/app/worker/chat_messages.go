package worker

var chatMessages = []string{
	"I'd gather everyone who is still standing and share what we know before anyone acts alone.",
	"Let's scout the perimeter first. Knowing the terrain beats rushing in blind.",
	"I offer to carry the heaviest load so the wounded can keep up with the group.",
	"We should trade with the outpost instead of fighting them. Allies are worth more than loot.",
	"I stay calm, check the map again, and suggest the safer route through the valley.",
	"Honesty first: I tell the captain exactly what went wrong and how I'll fix it.",
	"I'd split our supplies fairly and keep a reserve for emergencies.",
	"Let me volunteer for the night watch so the others can rest.",
	"I listen to the stranger's story before judging. Maybe they need help too.",
	"We repair the generator together, then signal for rescue at dawn.",
	"I protect the kids first, then go back for the equipment.",
	"Instead of blaming anyone, I propose a plan and ask everyone to vote on it.",
	"I'd share my last ration with the injured scout. We move faster together.",
	"Let's set traps around camp and keep the fire low so we are not spotted.",
	"I thank the team for holding the line and promise to bring everyone home.",
}
