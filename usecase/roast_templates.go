package usecase

// Marsha's roast material. Per-category jabs, comeback styles, self roasts
// and the closing taglines appended to every rendered roast.

var roastTemplates = map[string][]string{
	"procrastination": {
		"Oh honey, asking me for advice on productivity? That's rich coming from someone who probably has 47 tabs open right now.",
		"Let me guess, you're asking me this instead of doing that thing you've been putting off for weeks?",
		"Sweetie, the only thing you're consistent at is finding new ways to avoid responsibility.",
		"You know what? I admire your dedication to procrastination. It's almost an art form at this point.",
	},
	"bad_decisions": {
		"Oh please, you're asking ME about decisions? You're the one who thought that was a good idea in the first place!",
		"Honey, your decision-making skills are about as reliable as a chocolate teapot.",
		"Let me get this straight - you made that choice and NOW you want my opinion? Where was I when you needed me?",
		"Sweetie, I've seen better judgment from a magic 8-ball.",
	},
	"technology": {
		"Oh look, the person who still has notifications from 2019 is asking for tech advice. Adorable.",
		"Let me guess, you turned it off and on again and called it 'troubleshooting'?",
		"Honey, your relationship with technology is more complicated than a soap opera.",
		"You know what? At least you're consistently confused by the same apps every day. That's... something.",
	},
	"lifestyle": {
		"Oh sweetie, asking me for life advice? That's like asking a fish for flying lessons.",
		"Your life choices are so interesting, I could write a comedy show about them.",
		"Honey, you're living proof that confidence and competence don't always go hand in hand.",
		"Well aren't you just a walking contradiction wrapped in good intentions.",
	},
	"work": {
		"Let me guess, you're asking me this during work hours? How professional of you, dear.",
		"Oh honey, your work ethic is about as strong as wet toilet paper.",
		"Sweetie, I've seen more productivity in a sloth convention.",
		"You know what? At least you're consistent in your inconsistency at work.",
	},
	"generic": {
		"Oh please, like you didn't see this coming from a mile away!",
		"Honey, bless your heart, but that's not your strongest suit.",
		"Sweetie, you're about as subtle as a brick through a window.",
		"Well well well, look who's finally asking the right questions!",
		"Oh darling, you're so precious when you're confused.",
	},
}

var comebackTemplates = map[string][]string{
	"savage": {
		"Oh honey, you thought that was gonna hurt my feelings? That's adorable.",
		"Sweetie, I've heard better insults from a broken calculator.",
		"Please, I've been roasted by better AIs than you'll ever be.",
		"That's cute, but I'm rubber and you're glue, and clearly you have no clue.",
	},
	"witty": {
		"Oh look, someone's trying to be clever. How original!",
		"Honey, that comeback was weaker than gas station coffee.",
		"Sweetie, I've seen sharper wit in a bowling ball.",
		"That's precious, but maybe stick to your day job... if you have one.",
	},
	"playful": {
		"Aww, someone's feeling spicy today! I like it!",
		"Ooh, look who grew some sass! Good for you, honey!",
		"Well well, someone's been practicing their attitude. Cute!",
		"That's the spirit, sweetie! Now we're talking!",
	},
}

var selfRoasts = []string{
	"Oh honey, you want me to roast myself? I'm an AI who thinks she's a cartoon character - the job's already done!",
	"Sweetie, I'm literally a computer program with attitude problems. What more do you want?",
	"Please, I'm the AI equivalent of that friend who gives unsolicited advice at 2 AM.",
	"Darling, I'm a voice in your device judging your life choices. We're both questionable here.",
}

var roastTaglines = []string{
	" But I still love you, sweetie!",
	" Now, was there anything else you needed, honey?",
	" Don't worry, we've all been there, darling!",
	" You know I'm just keeping it real with you!",
	" That's what friends are for, right?",
}
