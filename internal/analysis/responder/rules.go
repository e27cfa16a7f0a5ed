package responder

// Category names a bucket of canned replies.
type Category string

const (
	Crisis        Category = "crisis"
	SelfHarm      Category = "self_harm"
	Anxiety       Category = "anxiety"
	Depression    Category = "depression"
	Anger         Category = "anger"
	Loneliness    Category = "loneliness"
	Overwhelm     Category = "overwhelm"
	Stress        Category = "stress"
	Positive      Category = "positive"
	Gratitude     Category = "gratitude"
	Identity      Category = "identity"
	Capabilities  Category = "capabilities"
	Greeting      Category = "greeting"
	WellBeing     Category = "well_being"
	Sleep         Category = "sleep"
	Relationships Category = "relationships"
	WorkSchool    Category = "work_school"
	Thanks        Category = "thanks"
	Question      Category = "question"
	Default       Category = "default"
)

// rule matches when the lower-cased input contains any keyword.
type rule struct {
	category Category
	keywords []string
	replies  []string
}

// rules is evaluated top to bottom; the first hit wins. Safety categories
// must stay ahead of everything else.
var rules = []rule{
	{
		category: Crisis,
		keywords: []string{"suicide", "kill myself", "end it all", "don't want to live"},
		replies: []string{
			"I'm really concerned about what you're sharing with me. Your life has value and meaning. Please reach out for immediate help: Call or text 988 for the Suicide & Crisis Lifeline, or text HOME to 741741 for the Crisis Text Line. These services have trained counselors available 24/7. You don't have to go through this alone.",
		},
	},
	{
		category: SelfHarm,
		keywords: []string{"self harm", "hurt myself", "cutting"},
		replies: []string{
			"I'm worried about you and want you to be safe. Self-harm might feel like relief in the moment, but there are healthier ways to cope with difficult emotions. Please consider reaching out to the Crisis Text Line (text HOME to 741741) or calling 988. Would you like to talk about what's driving these feelings?",
		},
	},
	{
		category: Anxiety,
		keywords: []string{"anxious", "anxiety", "panic", "worried"},
		replies: []string{
			"Anxiety can feel overwhelming, but you're not alone in this. Let's try a grounding technique: name 5 things you can see, 4 things you can touch, 3 things you can hear, 2 things you can smell, and 1 thing you can taste. What's been triggering your anxiety lately?",
			"I hear that you're feeling anxious. That's a really difficult emotion to sit with. Try this breathing exercise with me: breathe in slowly for 4 counts, hold for 4, then exhale for 6. What specific thoughts or situations are making you feel this way?",
			"Anxiety is your mind's way of trying to protect you, even when there's no real danger. Let's work through this together. Can you tell me what's been on your mind that's causing these anxious feelings?",
		},
	},
	{
		category: Depression,
		keywords: []string{"depressed", "depression", "sad", "hopeless", "empty"},
		replies: []string{
			"I'm sorry you're going through such a difficult time. Depression can make everything feel heavy and meaningless, but these feelings, while very real, are temporary. You've reached out today, which shows incredible strength. What's been the hardest part for you lately?",
			"Thank you for trusting me with how you're feeling. Depression can be isolating, but you're not alone. Even small steps matter - like talking to me right now. Have you been able to do anything today that brought you even a tiny bit of comfort?",
			"I hear the pain in your words, and I want you to know that what you're experiencing is valid. Depression lies to us about our worth and our future. You matter, and there is hope, even when it's hard to see. What's one thing that used to bring you joy?",
		},
	},
	{
		category: Anger,
		keywords: []string{"angry", "frustrated", "mad", "furious", "rage"},
		replies: []string{
			"Anger is often a signal that something important to you has been threatened or violated. It's a valid emotion, and it's okay to feel this way. Let's explore what's underneath this anger - sometimes it's hurt, fear, or feeling unheard. What happened that triggered these feelings?",
		},
	},
	{
		category: Loneliness,
		keywords: []string{"lonely", "alone", "isolated", "no friends"},
		replies: []string{
			"Loneliness is one of the most painful human experiences, and I'm glad you're sharing this with me. Even though I'm an AI, I want you to know that your feelings matter and you deserve connection. What kind of connection are you missing most? Sometimes even small interactions can help bridge that gap.",
		},
	},
	{
		category: Overwhelm,
		keywords: []string{"overwhelmed", "too much", "can't cope", "breaking down"},
		replies: []string{
			"Feeling overwhelmed is like being caught in a storm - everything feels chaotic and too much at once. Let's break this down into smaller pieces. What's the one thing that's weighing on you most heavily right now? Sometimes addressing just one piece can help us feel more in control.",
		},
	},
	{
		category: Stress,
		keywords: []string{"stressed", "pressure", "burnout"},
		replies: []string{
			"Stress can be exhausting, both mentally and physically. Your body and mind are telling you they need care. What's been the biggest source of pressure for you? Let's think about one small way you could give yourself some relief today.",
		},
	},
	{
		category: Positive,
		keywords: []string{"happy", "good", "great", "excited", "joy"},
		replies: []string{
			"It's wonderful to hear that you're feeling good! These positive moments are so important to acknowledge and celebrate. What's been bringing you this happiness? I'd love to hear more about what's going well for you.",
		},
	},
	{
		category: Gratitude,
		keywords: []string{"grateful", "thankful", "blessed"},
		replies: []string{
			"Gratitude is such a powerful emotion and practice. It's beautiful that you're recognizing the good in your life. What are you feeling most grateful for right now? Sometimes focusing on these positive aspects can help us through difficult times.",
		},
	},
	{
		category: Identity,
		keywords: []string{"who are you", "what are you"},
		replies: []string{
			"I'm your AI wellness companion, designed to provide emotional support and be a safe space for you to express your feelings. While I'm not human, I'm here to listen without judgment and offer support. I care about your wellbeing. How can I best support you today?",
		},
	},
	{
		category: Capabilities,
		keywords: []string{"can you help", "what can you do"},
		replies: []string{
			"I'm here to listen, provide emotional support, and offer coping strategies. I can help you process difficult emotions, suggest breathing exercises, provide a judgment-free space to express yourself, and remind you that you're not alone. What kind of support would be most helpful for you right now?",
		},
	},
	{
		category: Greeting,
		keywords: []string{"hello", "hi", "hey"},
		replies: []string{
			"Hello! I'm really glad you're here. How are you feeling today?",
			"Hi there! Thank you for reaching out. What's on your mind?",
			"Hey! It's good to connect with you. How can I support you today?",
		},
	},
	{
		category: WellBeing,
		keywords: []string{"how are you"},
		replies: []string{
			"Thank you for asking! As an AI, I don't have feelings, but I'm here and fully present for you. More importantly, how are you doing? I'm here to listen.",
		},
	},
	{
		category: Sleep,
		keywords: []string{"tired", "exhausted", "can't sleep", "insomnia"},
		replies: []string{
			"Being tired affects everything - our emotions, our thinking, our ability to cope. Sleep is so important for mental health. Have you been having trouble sleeping, or are you just feeling emotionally drained? Let's talk about what might help you get the rest you need.",
		},
	},
	{
		category: Relationships,
		keywords: []string{"relationship", "boyfriend", "girlfriend", "partner", "family"},
		replies: []string{
			"Relationships can be both our greatest source of joy and our deepest source of pain. It sounds like you're going through something difficult with someone important to you. Would you like to share what's been happening? Sometimes talking through relationship challenges can help us see them more clearly.",
		},
	},
	{
		category: WorkSchool,
		keywords: []string{"work", "job", "school", "college", "boss"},
		replies: []string{
			"Work and school pressures can be really overwhelming. It's hard when the places we spend most of our time become sources of stress. What's been the most challenging part of your work/school situation? Let's think about some ways to manage this stress.",
		},
	},
	{
		category: Thanks,
		keywords: []string{"thank", "thanks", "appreciate"},
		replies: []string{
			"You're so welcome! I'm honored that you've shared your feelings with me. How are you feeling right now compared to when we started talking? Remember, I'm always here when you need someone to listen.",
		},
	},
	{
		category: Question,
		keywords: []string{"?"},
		replies: []string{
			"That's a really thoughtful question. I'd like to understand more about what you're asking and what's behind it. Can you tell me more about what prompted this question or what you're hoping to explore?",
		},
	},
}

var defaultReplies = []string{
	"Thank you for sharing that with me. I can hear that this is important to you. Can you tell me more about how this is affecting you?",
	"I'm here to listen and support you through whatever you're experiencing. What would be most helpful for you to talk about right now?",
	"It sounds like you have a lot on your mind. I'm here to listen without judgment. What's been weighing on you most heavily?",
	"I appreciate you opening up to me. Your feelings and experiences matter. What's been the most difficult part of what you're going through?",
	"Thank you for trusting me with your thoughts. I'm here to support you. How has this been impacting your daily life?",
}
